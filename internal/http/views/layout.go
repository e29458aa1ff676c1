// Package views renders the staff pages as templ components built by hand,
// so the handler layer stays agnostic about how markup is produced.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/providerhub/providerhub/internal/http/viewmodels"
)

// Layout wraps a page body in the shared chrome.
func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s | ProviderHub</title>
<link rel="stylesheet" href="/static/app.css">
</head>
<body>
<header class="topbar">
<a class="brand" href="/">ProviderHub</a>
<nav>`, Esc(data.Title)); err != nil {
			return err
		}
		if data.UserEmail != "" {
			if _, err := fmt.Fprintf(w, `<span class="user">%s</span>
<form method="post" action="/logout">
<input type="hidden" name="csrf" value="%s">
<button type="submit">Log out</button>
</form>`, Esc(data.UserEmail), Esc(data.CSRFToken)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav>
</header>
<main>
`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `
</main>
</body>
</html>
`)
		return err
	})
}

func toast(w io.Writer, t viewmodels.ToastViewData) error {
	if t.Title == "" && t.Message == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, `<div class="toast toast-%s"><strong>%s</strong> %s</div>
`, Esc(t.Category), Esc(t.Title), Esc(t.Message))
	return err
}
