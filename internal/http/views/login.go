package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/providerhub/providerhub/internal/http/viewmodels"
)

// LoginPage renders the staff sign-in form.
func LoginPage(data viewmodels.LoginViewData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if err := toast(w, data.Toast); err != nil {
			return err
		}
		if data.SetupRequired {
			if _, err := io.WriteString(w, `<p class="notice">No staff account exists yet. Create one with the bootstrap-admin command, then sign in here.</p>
`); err != nil {
				return err
			}
		}
		if data.ErrorMessage != "" {
			if _, err := fmt.Fprintf(w, `<p class="error" role="alert">%s</p>
`, Esc(data.ErrorMessage)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<form method="post" action="/login" class="login-form">
<input type="hidden" name="csrf" value="%s">
<input type="hidden" name="next" value="%s">
<label>Email <input type="email" name="email" value="%s" autocomplete="username" required></label>
<label>Password <input type="password" name="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
`, Esc(data.CSRFToken), Esc(data.Next), Esc(data.Email))
		return err
	})
	return Layout(viewmodels.LayoutData{Title: "Sign in", CSRFToken: data.CSRFToken}, body)
}
