package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/store"
)

func TestRunOnce_EmptyQueueSendsNothing(t *testing.T) {
	t.Parallel()

	outbox := &mail.Outbox{}
	n := &Notifier{Store: store.NewMemory(), Mailer: outbox, ReviewEmail: "review@example.com"}

	if err := n.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := len(outbox.Sent()); got != 0 {
		t.Fatalf("messages sent = %d, want 0", got)
	}
}

func TestRunOnce_BatchesAndMarksNotified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()
	svc, err := m.CreateService(ctx, store.Service{Name: "Helpline", Status: store.StatusDraft})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if _, err := m.CreateUpdateRecord(ctx, svc.ID, store.UpdateNewService); err != nil {
		t.Fatalf("CreateUpdateRecord() error = %v", err)
	}

	outbox := &mail.Outbox{}
	n := &Notifier{Store: m, Mailer: outbox, ReviewEmail: "review@example.com"}

	if err := n.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	sent := outbox.Sent()
	if len(sent) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(sent))
	}
	if sent[0].To != "review@example.com" {
		t.Fatalf("To = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, "new-service: Helpline") {
		t.Fatalf("body missing record line:\n%s", sent[0].Body)
	}

	pending, err := m.ListPendingUpdateRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingUpdateRecords() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after run = %d, want 0", len(pending))
	}

	// A second run has nothing left.
	if err := n.RunOnce(ctx); err != nil {
		t.Fatalf("second RunOnce() error = %v", err)
	}
	if got := len(outbox.Sent()); got != 1 {
		t.Fatalf("messages sent after second run = %d, want 1", got)
	}
}
