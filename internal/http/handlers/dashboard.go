package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/providerhub/providerhub/internal/directory"
	"github.com/providerhub/providerhub/internal/http/authn"
	"github.com/providerhub/providerhub/internal/http/viewmodels"
	"github.com/providerhub/providerhub/internal/http/views"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	principal, ok := authn.PrincipalFromContext(c)
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return viewmodels.LayoutData{
		Title:      title,
		CSRFToken:  csrfToken,
		UserEmail:  principal.Email,
		IsStaff:    ok && principal.IsStaff(),
		ActivePath: c.Request().URL.Path,
	}
}

// HandleDashboard renders the staff review queue.
func (h *Handlers) HandleDashboard(c *echo.Context) error {
	ctx := c.Request().Context()

	drafts, err := h.Store.ListServicesByStatus(ctx, store.StatusDraft)
	if err != nil {
		return err
	}

	items := make([]viewmodels.DashboardDraftItem, 0, len(drafts))
	for _, d := range drafts {
		item := viewmodels.DashboardDraftItem{
			ID:          d.ID,
			Name:        d.Name,
			Status:      d.Status,
			UpdateOfID:  d.UpdateOfID,
			SubmittedAt: d.CreatedAt.Format("2006-01-02 15:04"),
		}
		if provider, err := h.Store.GetProvider(ctx, d.ProviderID); err == nil {
			item.ProviderName = provider.Name
		}
		items = append(items, item)
	}

	data := viewmodels.DashboardViewData{
		Layout:       h.LayoutData(c, "Review queue"),
		Drafts:       items,
		PendingCount: len(items),
		Toast:        popFlashToast(c),
	}
	return h.RenderComponent(c, views.DashboardPage(data))
}

// HandleApproveService promotes a draft from the review queue.
func (h *Handlers) HandleApproveService(c *echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	approved, err := h.Directory.Approve(ctx, id)
	if err != nil {
		return h.reviewActionError(c, err)
	}
	h.notifyProviderOfApproval(c, approved)

	metrics.ServiceTransitionsTotal.WithLabelValues("approved").Inc()
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: "Listing approved"})
	return c.Redirect(http.StatusSeeOther, "/")
}

// notifyProviderOfApproval mails the owning provider. The listing is already
// live at this point, so a mail failure is logged rather than surfaced.
func (h *Handlers) notifyProviderOfApproval(c *echo.Context, approved store.Service) {
	ctx := c.Request().Context()
	provider, err := h.Store.GetProvider(ctx, approved.ProviderID)
	if err == nil {
		var user store.User
		if user, err = h.Store.GetUser(ctx, provider.UserID); err == nil {
			err = h.Mailer.Send(ctx, mail.Approval(user.Email, approved.Name))
		}
	}
	if err != nil {
		c.Logger().Error("approval notice not sent", "service_id", approved.ID, "error", err)
	}
}

// HandleRejectService marks a draft rejected.
func (h *Handlers) HandleRejectService(c *echo.Context) error {
	id, err := serviceID(c)
	if err != nil {
		return err
	}

	if _, err := h.Directory.Reject(c.Request().Context(), id); err != nil {
		return h.reviewActionError(c, err)
	}

	metrics.ServiceTransitionsTotal.WithLabelValues("rejected").Inc()
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: "Listing rejected"})
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) reviewActionError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "")
	case errors.Is(err, directory.ErrNotDraft):
		setFlashToast(c, viewmodels.ToastViewData{
			Category: "error",
			Title:    "Not a draft",
			Message:  "Only draft listings can be approved or rejected.",
		})
		return c.Redirect(http.StatusSeeOther, "/")
	default:
		return err
	}
}
