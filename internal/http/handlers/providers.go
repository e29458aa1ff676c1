package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/http/authn"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/store"
)

type registerProviderRequest struct {
	Email              string `json:"email" form:"email"`
	Password           string `json:"password" form:"password"`
	BaseActivationLink string `json:"base_activation_link" form:"base_activation_link"`

	Name                 string `json:"name" form:"name"`
	TypeID               int64  `json:"type" form:"type"`
	PhoneNumber          string `json:"phone_number" form:"phone_number"`
	Website              string `json:"website" form:"website"`
	Description          string `json:"description" form:"description"`
	MonthlyBeneficiaries int    `json:"number_of_monthly_beneficiaries" form:"number_of_monthly_beneficiaries"`
}

type providerResponse struct {
	ID                   int64  `json:"id"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
	TypeID               int64  `json:"type"`
	PhoneNumber          string `json:"phone_number"`
	Website              string `json:"website"`
	Description          string `json:"description"`
	MonthlyBeneficiaries int    `json:"number_of_monthly_beneficiaries"`
}

func providerJSON(p store.Provider, email string) providerResponse {
	return providerResponse{
		ID:                   p.ID,
		Email:                email,
		Name:                 p.Name,
		TypeID:               p.TypeID,
		PhoneNumber:          p.PhoneNumber,
		Website:              p.Website,
		Description:          p.Description,
		MonthlyBeneficiaries: p.MonthlyBeneficiaries,
	}
}

// HandleAPIRegisterProvider implements POST /api/providers/. The account
// starts inactive; the activation mail carries the caller's base link with
// the fresh key appended.
func (h *Handlers) HandleAPIRegisterProvider(c *echo.Context) error {
	var req registerProviderRequest
	if err := c.Bind(&req); err != nil {
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
	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", "This field may not be blank.")
	}
	if strings.TrimSpace(req.BaseActivationLink) == "" {
		errs.Add("base_activation_link", "This field may not be blank.")
	}
	if len(errs) > 0 {
		return h.BadRequest(c, errs)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	activationKey := auth.NewKey()
	user, err := h.Store.CreateUser(ctx, store.CreateUserParams{
		Email:         email,
		PasswordHash:  hash,
		Role:          auth.RoleProvider,
		IsActive:      false,
		TokenKey:      auth.NewKey(),
		ActivationKey: activationKey,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return h.FieldError(c, "email", "A user with that email already exists.")
		}
		return err
	}

	provider, err := h.Store.CreateProvider(ctx, store.Provider{
		UserID:               user.ID,
		TypeID:               req.TypeID,
		Name:                 strings.TrimSpace(req.Name),
		PhoneNumber:          strings.TrimSpace(req.PhoneNumber),
		Website:              strings.TrimSpace(req.Website),
		Description:          req.Description,
		MonthlyBeneficiaries: req.MonthlyBeneficiaries,
	})
	if err != nil {
		return err
	}

	baseLink := strings.TrimSpace(req.BaseActivationLink)
	if err := h.Mailer.Send(ctx, mail.Activation(user.Email, baseLink, activationKey)); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, providerJSON(provider, user.Email))
}

// HandleAPICurrentProvider implements GET /api/providers/me/ for the
// token-authenticated provider.
func (h *Handlers) HandleAPICurrentProvider(c *echo.Context) error {
	principal, ok := authn.PrincipalFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "")
	}

	provider, err := h.Store.GetProviderByUser(c.Request().Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "")
		}
		return err
	}
	return c.JSON(http.StatusOK, providerJSON(provider, principal.Email))
}

// HandleAPIListProviders implements GET /api/providers/, the public
// provider directory.
func (h *Handlers) HandleAPIListProviders(c *echo.Context) error {
	ctx := c.Request().Context()
	providers, err := h.Store.ListProviders(ctx)
	if err != nil {
		return err
	}
	items := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		user, err := h.Store.GetUser(ctx, p.UserID)
		if err != nil {
			return err
		}
		items = append(items, providerJSON(p, user.Email))
	}
	return c.JSON(http.StatusOK, items)
}

// HandleAPIGetProvider implements GET /api/providers/:id/.
func (h *Handlers) HandleAPIGetProvider(c *echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "")
	}

	ctx := c.Request().Context()
	provider, err := h.Store.GetProvider(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "")
		}
		return err
	}
	user, err := h.Store.GetUser(ctx, provider.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, providerJSON(provider, user.Email))
}

type lookupItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HandleAPIProviderTypes implements GET /api/provider-types/.
func (h *Handlers) HandleAPIProviderTypes(c *echo.Context) error {
	types, err := h.Store.ListProviderTypes(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]lookupItem, 0, len(types))
	for _, t := range types {
		items = append(items, lookupItem{ID: t.ID, Name: t.Name})
	}
	return c.JSON(http.StatusOK, items)
}

// HandleAPIServiceTypes implements GET /api/service-types/.
func (h *Handlers) HandleAPIServiceTypes(c *echo.Context) error {
	types, err := h.Store.ListServiceTypes(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]lookupItem, 0, len(types))
	for _, t := range types {
		items = append(items, lookupItem{ID: t.ID, Name: t.Name})
	}
	return c.JSON(http.StatusOK, items)
}

type areaItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent,omitempty"`
}

// HandleAPIServiceAreas implements GET /api/service-areas/.
func (h *Handlers) HandleAPIServiceAreas(c *echo.Context) error {
	areas, err := h.Store.ListServiceAreas(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]areaItem, 0, len(areas))
	for _, a := range areas {
		items = append(items, areaItem{ID: a.ID, Name: a.Name, ParentID: a.ParentID})
	}
	return c.JSON(http.StatusOK, items)
}
