package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/settings"
)

// fakeUI records surface and menu calls. Safe for concurrent use because
// the in-flight guard test submits from two goroutines.
type fakeUI struct {
	mu          sync.Mutex
	errs        map[string]string
	clears      int
	navigations []string
	loginShown  bool
	logoutShown bool
}

func newFakeUI() *fakeUI {
	return &fakeUI{errs: map[string]string{}, loginShown: true}
}

func (u *fakeUI) ClearErrors() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clears++
	u.errs = map[string]string{}
}

func (u *fakeUI) ShowError(field, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errs[field] = message
}

func (u *fakeUI) Navigate(route string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.navigations = append(u.navigations, route)
}

func (u *fakeUI) ShowLogin()  { u.mu.Lock(); u.loginShown = true; u.mu.Unlock() }
func (u *fakeUI) HideLogin()  { u.mu.Lock(); u.loginShown = false; u.mu.Unlock() }
func (u *fakeUI) ShowLogout() { u.mu.Lock(); u.logoutShown = true; u.mu.Unlock() }
func (u *fakeUI) HideLogout() { u.mu.Lock(); u.logoutShown = false; u.mu.Unlock() }

func (u *fakeUI) lastNavigation() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.navigations) == 0 {
		return ""
	}
	return u.navigations[len(u.navigations)-1]
}

func (u *fakeUI) errorFor(field string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	msg, ok := u.errs[field]
	return msg, ok
}

func (u *fakeUI) errorCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.errs)
}

func newForm(t *testing.T, handler http.Handler) (*LoginForm, *fakeUI, *settings.Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := settings.NewMemory()
	if err := s.Set(settings.KeyAPILocation, srv.URL+"/"); err != nil {
		t.Fatalf("Set(api_location) error = %v", err)
	}

	ui := newFakeUI()
	return &LoginForm{HTTP: srv.Client(), Settings: s, Surface: ui, Menu: ui}, ui, s
}

func TestSubmit_SuccessStoresTokenTogglesAndNavigates(t *testing.T) {
	t.Parallel()

	form, ui, s := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "abc123", "email": "joe@example.com"}`))
	}))

	if err := form.Submit(context.Background(), "joe@example.com", "abc123"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got, _ := s.Get(settings.KeyAuthToken); got != "abc123" {
		t.Fatalf("stored token = %q, want %q", got, "abc123")
	}
	if ui.loginShown || !ui.logoutShown {
		t.Fatalf("menu state login=%v logout=%v, want false/true", ui.loginShown, ui.logoutShown)
	}
	if got := ui.lastNavigation(); got != RouteService {
		t.Fatalf("navigation = %q, want %q", got, RouteService)
	}
}

func TestSubmit_FailureRendersFieldErrorsOnly(t *testing.T) {
	t.Parallel()

	form, ui, s := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"email": "Invalid email", "non_field_errors": "Bad login"}`))
	}))

	// Stale text from an earlier attempt must be cleared first.
	ui.ShowError("password", "old message")

	err := form.Submit(context.Background(), "joe@example.com", "wrong")
	var fieldErrs fielderrors.Map
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Submit() error = %v, want fielderrors.Map", err)
	}

	if msg, _ := ui.errorFor("email"); msg != "Invalid email" {
		t.Fatalf("email slot = %q, want %q", msg, "Invalid email")
	}
	if msg, _ := ui.errorFor(fielderrors.NonField); msg != "Bad login" {
		t.Fatalf("non-field slot = %q, want %q", msg, "Bad login")
	}
	if got := ui.errorCount(); got != 2 {
		t.Fatalf("error slots = %d, want 2", got)
	}
	if _, ok := ui.errorFor("password"); ok {
		t.Fatal("stale password error survived the clear")
	}
	if _, ok := s.Get(settings.KeyAuthToken); ok {
		t.Fatal("token stored on failure")
	}
}

func TestSubmit_OnlyPayloadKeysAreRendered(t *testing.T) {
	t.Parallel()

	form, ui, _ := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"password": ["This field may not be blank."]}`))
	}))

	if err := form.Submit(context.Background(), "joe@example.com", ""); err == nil {
		t.Fatal("Submit() error = nil, want field errors")
	}

	if got := ui.errorCount(); got != 1 {
		t.Fatalf("error slots = %d, want only the payload's own key", got)
	}
	if msg, _ := ui.errorFor("password"); msg != "This field may not be blank." {
		t.Fatalf("password slot = %q", msg)
	}
}

func TestSubmit_NetworkFailureGetsDistinctMessage(t *testing.T) {
	t.Parallel()

	form, ui, _ := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	// Point at a closed port.
	if err := form.Settings.Set(settings.KeyAPILocation, "http://127.0.0.1:1/"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	err := form.Submit(context.Background(), "joe@example.com", "abc123")
	if err == nil {
		t.Fatal("Submit() error = nil, want transport error")
	}
	var fieldErrs fielderrors.Map
	if errors.As(err, &fieldErrs) {
		t.Fatal("transport failure must not masquerade as validation errors")
	}
	if msg, _ := ui.errorFor(fielderrors.NonField); msg != "Unable to reach the server." {
		t.Fatalf("non-field slot = %q", msg)
	}
}

func TestSubmit_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	form, _, _ := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"token": "abc123"}`))
	}))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- form.Submit(context.Background(), "joe@example.com", "abc123")
	}()

	// Wait until the first submit transitions to Submitting.
	for {
		form.mu.Lock()
		submitting := form.submitting
		form.mu.Unlock()
		if submitting {
			break
		}
	}

	if err := form.Submit(context.Background(), "joe@example.com", "abc123"); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("second Submit() error = %v, want ErrSubmitInFlight", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
}

func TestSubmit_MissingAPILocation(t *testing.T) {
	t.Parallel()

	ui := newFakeUI()
	form := &LoginForm{Settings: settings.NewMemory(), Surface: ui, Menu: ui}
	if err := form.Submit(context.Background(), "joe@example.com", "abc123"); !errors.Is(err, ErrNoAPILocation) {
		t.Fatalf("Submit() error = %v, want ErrNoAPILocation", err)
	}
}

func TestSubmit_MalformedSuccessPayload(t *testing.T) {
	t.Parallel()

	form, ui, _ := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	}))

	if err := form.Submit(context.Background(), "joe@example.com", "abc123"); err == nil {
		t.Fatal("Submit() error = nil, want malformed response error")
	}
	if msg, _ := ui.errorFor(fielderrors.NonField); msg != "Login failed." {
		t.Fatalf("non-field slot = %q", msg)
	}
}

func TestSubmit_EmptyTokenInSuccessPayload(t *testing.T) {
	t.Parallel()

	form, ui, st := newForm(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token": "", "email": "joe@example.com"}`))
	}))

	err := form.Submit(context.Background(), "joe@example.com", "abc123")
	if !errors.Is(err, errMissingToken) {
		t.Fatalf("Submit() error = %v, want errMissingToken", err)
	}
	if strings.Contains(err.Error(), "%!w") {
		t.Fatalf("error message carries a nil wrap verb: %q", err.Error())
	}
	if msg, _ := ui.errorFor(fielderrors.NonField); msg != "Login failed." {
		t.Fatalf("non-field slot = %q", msg)
	}
	if _, ok := st.Get(settings.KeyAuthToken); ok {
		t.Fatal("empty token must not be stored")
	}
}
