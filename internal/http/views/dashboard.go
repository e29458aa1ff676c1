package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/providerhub/providerhub/internal/http/viewmodels"
)

// DashboardPage renders the review queue: draft listings with approve and
// reject actions.
func DashboardPage(data viewmodels.DashboardViewData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if err := toast(w, data.Toast); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h1>Review queue</h1>
<p class="count">%d draft listing(s) awaiting review.</p>
`, data.PendingCount); err != nil {
			return err
		}
		if len(data.Drafts) == 0 {
			_, err := io.WriteString(w, `<p class="empty">Nothing to review.</p>
`)
			return err
		}

		if _, err := io.WriteString(w, `<table class="drafts">
<thead><tr><th>Service</th><th>Provider</th><th>Kind</th><th>Submitted</th><th></th></tr></thead>
<tbody>
`); err != nil {
			return err
		}
		for _, d := range data.Drafts {
			kind := "new"
			if d.UpdateOfID != 0 {
				kind = "update of #" + FormatInt64(d.UpdateOfID)
			}
			if _, err := fmt.Fprintf(w, `<tr>
<td>%s</td>
<td>%s</td>
<td>%s</td>
<td>%s</td>
<td>
<form method="post" action="/services/%s/approve"><input type="hidden" name="csrf" value="%s"><button type="submit">Approve</button></form>
<form method="post" action="/services/%s/reject"><input type="hidden" name="csrf" value="%s"><button type="submit" class="danger">Reject</button></form>
</td>
</tr>
`, Esc(d.Name), Esc(d.ProviderName), Esc(kind), Esc(d.SubmittedAt),
				FormatInt64(d.ID), Esc(data.Layout.CSRFToken),
				FormatInt64(d.ID), Esc(data.Layout.CSRFToken)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody>
</table>
`)
		return err
	})
	return Layout(data.Layout, body)
}
