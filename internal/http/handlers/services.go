package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/directory"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/http/authn"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

type serviceRequest struct {
	Name           string `json:"name" form:"name"`
	TypeID         int64  `json:"type" form:"type"`
	AreaID         int64  `json:"area_of_service" form:"area_of_service"`
	Description    string `json:"description" form:"description"`
	AdditionalInfo string `json:"additional_info" form:"additional_info"`
	Cost           string `json:"cost" form:"cost"`
	UpdateOfID     int64  `json:"update_of" form:"update_of"`
}

type serviceResponse struct {
	ID             int64  `json:"id"`
	ProviderID     int64  `json:"provider"`
	Name           string `json:"name"`
	TypeID         int64  `json:"type"`
	AreaID         int64  `json:"area_of_service"`
	Description    string `json:"description"`
	AdditionalInfo string `json:"additional_info"`
	Cost           string `json:"cost"`
	Status         string `json:"status"`
	UpdateOfID     int64  `json:"update_of,omitempty"`
}

func serviceJSON(s store.Service) serviceResponse {
	return serviceResponse{
		ID:             s.ID,
		ProviderID:     s.ProviderID,
		Name:           s.Name,
		TypeID:         s.TypeID,
		AreaID:         s.AreaID,
		Description:    s.Description,
		AdditionalInfo: s.AdditionalInfo,
		Cost:           s.Cost,
		Status:         s.Status,
		UpdateOfID:     s.UpdateOfID,
	}
}

// HandleAPISubmitService implements POST /api/services/. Submissions always
// land as drafts for staff review, whether new or an update_of edit.
func (h *Handlers) HandleAPISubmitService(c *echo.Context) error {
	principal, ok := authn.PrincipalFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "")
	}

	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return h.FieldError(c, fielderrors.NonField, "Invalid request payload.")
	}
	if strings.TrimSpace(req.Name) == "" {
		return h.FieldError(c, "name", "This field may not be blank.")
	}

	ctx := c.Request().Context()
	provider, err := h.Store.GetProviderByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.FieldError(c, fielderrors.NonField, "No provider profile for this account.")
		}
		return err
	}

	if req.UpdateOfID != 0 {
		parent, err := h.Store.GetService(ctx, req.UpdateOfID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return h.FieldError(c, "update_of", "Service does not exist.")
			}
			return err
		}
		if parent.ProviderID != provider.ID {
			return echo.NewHTTPError(http.StatusForbidden, "")
		}
	}

	created, err := h.Directory.Submit(ctx, store.Service{
		ProviderID:     provider.ID,
		TypeID:         req.TypeID,
		AreaID:         req.AreaID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		AdditionalInfo: req.AdditionalInfo,
		Cost:           req.Cost,
		UpdateOfID:     req.UpdateOfID,
	})
	if err != nil {
		return err
	}

	metrics.ServiceTransitionsTotal.WithLabelValues("submitted").Inc()
	return c.JSON(http.StatusCreated, serviceJSON(created))
}

// HandleAPIListOwnServices implements GET /api/services/ for the
// authenticated provider.
func (h *Handlers) HandleAPIListOwnServices(c *echo.Context) error {
	principal, ok := authn.PrincipalFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "")
	}

	ctx := c.Request().Context()
	provider, err := h.Store.GetProviderByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusOK, []serviceResponse{})
		}
		return err
	}

	services, err := h.Store.ListServicesByProvider(ctx, provider.ID)
	if err != nil {
		return err
	}
	items := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		items = append(items, serviceJSON(s))
	}
	return c.JSON(http.StatusOK, items)
}

// HandleAPIListDirectory implements GET /api/directory/: the public list of
// current services. No authentication.
func (h *Handlers) HandleAPIListDirectory(c *echo.Context) error {
	services, err := h.Store.ListServicesByStatus(c.Request().Context(), store.StatusCurrent)
	if err != nil {
		return err
	}
	items := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		items = append(items, serviceJSON(s))
	}
	return c.JSON(http.StatusOK, items)
}

// HandleAPICancelService implements POST /api/services/:id/cancel/.
func (h *Handlers) HandleAPICancelService(c *echo.Context) error {
	principal, ok := authn.PrincipalFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "")
	}

	id, err := serviceID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	service, err := h.Store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "")
		}
		return err
	}

	provider, err := h.Store.GetProviderByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusForbidden, "")
		}
		return err
	}
	if provider.ID != service.ProviderID {
		return echo.NewHTTPError(http.StatusForbidden, "")
	}

	canceled, err := h.Directory.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotCancelable) {
			return h.FieldError(c, fielderrors.NonField, "Only draft or current services can be canceled.")
		}
		return err
	}

	metrics.ServiceTransitionsTotal.WithLabelValues("canceled").Inc()
	return c.JSON(http.StatusOK, serviceJSON(canceled))
}

func serviceID(c *echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "")
	}
	return id, nil
}
