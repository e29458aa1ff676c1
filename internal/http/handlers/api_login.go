package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// HandleAPILogin implements POST /api/login/. Failures come back as a field
// error map so the client can render each message next to its input.
func (h *Handlers) HandleAPILogin(c *echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}

	email := auth.NormalizeEmail(req.Email)
	errs := fielderrors.Map{}
	if email == "" {
		errs.Add("email", "This field may not be blank.")
	} else if !auth.ValidEmail(email) {
		errs.Add("email", "Enter a valid email address.")
	}
	if strings.TrimSpace(req.Password) == "" {
		errs.Add("password", "This field may not be blank.")
	}
	if len(errs) > 0 {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return h.BadRequest(c, errs)
	}

	ctx := c.Request().Context()
	user, err := h.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			return h.FieldError(c, fielderrors.NonField, "Unable to log in with provided credentials.")
		}
		return err
	}

	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return h.FieldError(c, fielderrors.NonField, "Unable to log in with provided credentials.")
	}
	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues("disabled").Inc()
		return h.FieldError(c, fielderrors.NonField, "User account is disabled.")
	}

	_ = h.Store.UpdateLoginMeta(ctx, user.ID, time.Now(), strings.TrimSpace(c.RealIP()))

	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: user.TokenKey, Email: user.Email})
}
