package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

const (
	msgInvalidActivationKey = "Activation key is invalid. Check that it was copied correctly and has not already been used."
	msgNoUserWithEmail      = "No user with that email"
	msgNotPendingActivation = "User is not pending activation"
	msgInvalidResetKey      = "Password reset key is not valid"

	resetKeyTTL = 24 * time.Hour
)

type activateRequest struct {
	ActivationKey string `json:"activation_key" form:"activation_key"`
}

// HandleAPIActivate implements POST /api/activate/. A valid key flips the
// account active, consumes the key, and hands back the API token so the
// client can log the user straight in.
func (h *Handlers) HandleAPIActivate(c *echo.Context) error {
	var req activateRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}

	key := strings.TrimSpace(req.ActivationKey)
	if !auth.ValidKeyFormat(key) {
		metrics.ActivationsTotal.WithLabelValues("rejected").Inc()
		return h.FieldError(c, "activation_key", msgInvalidActivationKey)
	}

	ctx := c.Request().Context()
	user, err := h.Store.GetUserByActivationKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ActivationsTotal.WithLabelValues("rejected").Inc()
			return h.FieldError(c, "activation_key", msgInvalidActivationKey)
		}
		return err
	}

	if err := h.Store.ActivateUser(ctx, user.ID); err != nil {
		return err
	}

	metrics.ActivationsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: user.TokenKey, Email: user.Email})
}

type resendActivationRequest struct {
	Email              string `json:"email" form:"email"`
	BaseActivationLink string `json:"base_activation_link" form:"base_activation_link"`
}

// HandleAPIResendActivation implements POST /api/resend-activation-link/.
// The key is reissued so a stale mail cannot activate the account.
func (h *Handlers) HandleAPIResendActivation(c *echo.Context) error {
	var req resendActivationRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}

	email := auth.NormalizeEmail(req.Email)
	if email == "" {
		return h.FieldError(c, "email", "This field may not be blank.")
	}

	ctx := c.Request().Context()
	user, err := h.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.FieldError(c, "email", msgNoUserWithEmail)
		}
		return err
	}
	if user.IsActive || user.ActivationKey == "" {
		return h.FieldError(c, "email", msgNotPendingActivation)
	}

	key := auth.NewKey()
	if err := h.Store.SetActivationKey(ctx, user.ID, key); err != nil {
		return err
	}

	baseLink := strings.TrimSpace(req.BaseActivationLink)
	if baseLink == "" {
		baseLink = h.Cfg.APILocation + "activate/"
	}
	if err := h.Mailer.Send(ctx, mail.Activation(user.Email, baseLink, key)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type resetRequestRequest struct {
	Email         string `json:"email" form:"email"`
	BaseResetLink string `json:"base_reset_link" form:"base_reset_link"`
}

// HandleAPIPasswordResetRequest implements POST /api/password-reset-request/.
func (h *Handlers) HandleAPIPasswordResetRequest(c *echo.Context) error {
	var req resetRequestRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}

	email := auth.NormalizeEmail(req.Email)
	if email == "" {
		return h.FieldError(c, "email", "This field may not be blank.")
	}

	ctx := c.Request().Context()
	user, err := h.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.FieldError(c, "email", msgNoUserWithEmail)
		}
		return err
	}

	key := auth.NewKey()
	if err := h.Store.SetResetKey(ctx, user.ID, key, time.Now().Add(resetKeyTTL)); err != nil {
		return err
	}

	baseLink := strings.TrimSpace(req.BaseResetLink)
	if baseLink == "" {
		baseLink = h.Cfg.APILocation + "reset/"
	}
	if err := h.Mailer.Send(ctx, mail.PasswordReset(user.Email, baseLink, key)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type resetCheckRequest struct {
	Key string `json:"key" form:"key"`
}

// HandleAPIPasswordResetCheck implements POST /api/password-reset-check/.
// Reset pages call it before showing the new-password form.
func (h *Handlers) HandleAPIPasswordResetCheck(c *echo.Context) error {
	var req resetCheckRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}

	_, ok, err := h.lookupResetUser(c, strings.TrimSpace(req.Key))
	if err != nil || !ok {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type resetRequest struct {
	Key      string `json:"key" form:"key"`
	Password string `json:"password" form:"password"`
}

// HandleAPIPasswordReset implements POST /api/password-reset/. The key is
// single-use: storing the new hash consumes it.
func (h *Handlers) HandleAPIPasswordReset(c *echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}
	if strings.TrimSpace(req.Password) == "" {
		return h.FieldError(c, "password", "This field may not be blank.")
	}

	user, ok, err := h.lookupResetUser(c, strings.TrimSpace(req.Key))
	if err != nil || !ok {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := h.Store.UpdatePassword(c.Request().Context(), user.ID, hash); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: user.TokenKey, Email: user.Email})
}

// lookupResetUser validates the key and its expiry. When the key is bad it
// writes the rejection itself and reports ok=false with a nil error.
func (h *Handlers) lookupResetUser(c *echo.Context, key string) (store.User, bool, error) {
	if !auth.ValidKeyFormat(key) {
		return store.User{}, false, h.FieldError(c, "key", msgInvalidResetKey)
	}

	user, err := h.Store.GetUserByResetKey(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, false, h.FieldError(c, "key", msgInvalidResetKey)
		}
		return store.User{}, false, err
	}
	if !user.ResetExpires.IsZero() && time.Now().After(user.ResetExpires) {
		return store.User{}, false, h.FieldError(c, "key", msgInvalidResetKey)
	}
	return user, true, nil
}
