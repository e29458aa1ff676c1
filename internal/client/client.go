// Package client implements the login flow driven by the terminal client:
// a form with two observable states (idle and submitting), a token write on
// success, and field-keyed error rendering on failure. The UI surface is a
// capability interface so the flow is testable without a real terminal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/settings"
)

const (
	// RouteService is where a successful login lands.
	RouteService = "service"
	// RouteLogin is the login form route.
	RouteLogin = "login"

	loginPath = "api/login/"
)

var (
	// ErrSubmitInFlight rejects a second submit while one request is
	// outstanding.
	ErrSubmitInFlight = errors.New("client: submit already in flight")
	// ErrNoAPILocation means the settings store has no api_location.
	ErrNoAPILocation = errors.New("client: api_location is not configured")

	errMissingToken = errors.New("client: login response missing token")
)

// Settings is the slice of the configuration store the login flow needs.
type Settings interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Surface receives error rendering and navigation. Implementations decide
// what a "slot" or a "route" is; the flow only names them.
type Surface interface {
	ClearErrors()
	ShowError(field, message string)
	Navigate(route string)
}

// Menu is the pair of mutually exclusive login/logout affordances.
type Menu interface {
	ShowLogin()
	HideLogin()
	ShowLogout()
	HideLogout()
}

// LoginForm posts credentials against {api_location}api/login/ and applies
// the outcome to the settings store, the menu, and the surface.
type LoginForm struct {
	HTTP     *http.Client
	Settings Settings
	Surface  Surface
	Menu     Menu

	mu         sync.Mutex
	submitting bool
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Submit runs one login attempt. Credentials live only in this call frame.
// On success the token is stored under forever.authToken, the menu is
// re-toggled, and the surface navigates to the service route. On a
// validation failure the server's field error map is rendered and returned
// as the error. Transport failures render a distinct non-field message.
func (f *LoginForm) Submit(ctx context.Context, email, password string) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	apiLocation, ok := f.Settings.Get(settings.KeyAPILocation)
	if !ok || apiLocation == "" {
		return ErrNoAPILocation
	}

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiLocation+loginPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient().Do(req)
	if err != nil {
		slog.Debug("login request failed", "err", err)
		f.Surface.ClearErrors()
		f.Surface.ShowError(fielderrors.NonField, "Unable to reach the server.")
		return fmt.Errorf("client: login request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("client: read login response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return f.applySuccess(payload)
	}
	return f.applyFailure(resp.StatusCode, payload)
}

func (f *LoginForm) applySuccess(payload []byte) error {
	var result loginResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		f.Surface.ClearErrors()
		f.Surface.ShowError(fielderrors.NonField, "Login failed.")
		return fmt.Errorf("client: malformed login response: %w", err)
	}
	if result.Token == "" {
		f.Surface.ClearErrors()
		f.Surface.ShowError(fielderrors.NonField, "Login failed.")
		return errMissingToken
	}

	if err := f.Settings.Set(settings.KeyAuthToken, result.Token); err != nil {
		return err
	}
	ToggleMenu(f.Settings, f.Menu, f.Surface)
	f.Surface.Navigate(RouteService)
	return nil
}

func (f *LoginForm) applyFailure(status int, payload []byte) error {
	f.Surface.ClearErrors()

	fieldErrs, err := fielderrors.Decode(payload)
	if err != nil || len(fieldErrs) == 0 {
		slog.Debug("login rejected without field errors", "status", status)
		f.Surface.ShowError(fielderrors.NonField, "Login failed.")
		return fmt.Errorf("client: login rejected with status %d", status)
	}

	for _, field := range fieldErrs.Fields() {
		f.Surface.ShowError(field, fieldErrs.Joined(field))
	}
	return fieldErrs
}

func (f *LoginForm) httpClient() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}
