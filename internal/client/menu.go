package client

import "github.com/providerhub/providerhub/internal/settings"

// ToggleMenu reads the session token and flips the login/logout menu
// affordances so exactly one is visible. Calling it again with unchanged
// settings produces the same calls, so it is safe to run after every state
// change.
func ToggleMenu(s Settings, menu Menu, surface Surface) {
	if token, ok := s.Get(settings.KeyAuthToken); ok && token != "" {
		menu.ShowLogout()
		menu.HideLogin()
		return
	}

	menu.ShowLogin()
	menu.HideLogout()
	// TODO: drop this redirect once the landing page renders for
	// logged-out visitors; today every tokenless load lands on the form.
	surface.Navigate(RouteLogin)
}
