// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/config"
	"github.com/providerhub/providerhub/internal/directory"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/store"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg       config.Config
	Store     store.Store
	Sessions  *scs.SessionManager
	Mailer    mail.Mailer
	Directory *directory.Directory
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// BadRequest writes a field error map with status 400. The wire shape
// matches what the login form client decodes: field name to list of
// messages, plus the non_field_errors slot for cross-field problems.
func (h *Handlers) BadRequest(c *echo.Context, errs fielderrors.Map) error {
	return c.JSON(http.StatusBadRequest, errs)
}

// FieldError is the single-message shorthand for BadRequest.
func (h *Handlers) FieldError(c *echo.Context, field, message string) error {
	return h.BadRequest(c, fielderrors.New(field, message))
}
