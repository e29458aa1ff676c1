package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/providerhub/providerhub/internal/store"
)

func newDirectory() (*Directory, *store.Memory) {
	m := store.NewMemory()
	return New(m), m
}

func pendingKinds(t *testing.T, m *store.Memory) map[int64][]string {
	t.Helper()
	records, err := m.ListPendingUpdateRecords(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListPendingUpdateRecords() error = %v", err)
	}
	kinds := map[int64][]string{}
	for _, r := range records {
		kinds[r.ServiceID] = append(kinds[r.ServiceID], r.Kind)
	}
	return kinds
}

func TestSubmit_NewServiceRecordsNewTicket(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	created, err := d.Submit(context.Background(), store.Service{Name: "Some service"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if created.Status != store.StatusDraft {
		t.Fatalf("Status = %q, want draft", created.Status)
	}

	kinds := pendingKinds(t, m)
	if got := kinds[created.ID]; len(got) != 1 || got[0] != store.UpdateNewService {
		t.Fatalf("records = %v, want [new-service]", got)
	}
}

func TestSubmit_UpdateOfTopLevelDraftReplacesIt(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	ctx := context.Background()

	first, err := d.Submit(ctx, store.Service{Name: "v1"})
	if err != nil {
		t.Fatalf("Submit(v1) error = %v", err)
	}
	second, err := d.Submit(ctx, store.Service{Name: "v2", UpdateOfID: first.ID})
	if err != nil {
		t.Fatalf("Submit(v2) error = %v", err)
	}

	if second.UpdateOfID != 0 {
		t.Fatalf("UpdateOfID = %d, want 0 after draft replacement", second.UpdateOfID)
	}

	replaced, err := m.GetService(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetService() error = %v", err)
	}
	if replaced.Status != store.StatusArchived {
		t.Fatalf("replaced draft status = %q, want archived", replaced.Status)
	}

	kinds := pendingKinds(t, m)
	if got := kinds[first.ID]; len(got) != 2 {
		t.Fatalf("first records = %v, want new-service + cancel-draft-service", got)
	}
	if got := kinds[second.ID]; len(got) != 1 || got[0] != store.UpdateNewService {
		t.Fatalf("second records = %v, want [new-service]", got)
	}
}

func TestSubmit_UpdateOfCurrentArchivesSiblingDrafts(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	ctx := context.Background()

	current, err := m.CreateService(ctx, store.Service{Name: "live", Status: store.StatusCurrent})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}

	older, err := d.Submit(ctx, store.Service{Name: "edit-1", UpdateOfID: current.ID})
	if err != nil {
		t.Fatalf("Submit(edit-1) error = %v", err)
	}
	newer, err := d.Submit(ctx, store.Service{Name: "edit-2", UpdateOfID: current.ID})
	if err != nil {
		t.Fatalf("Submit(edit-2) error = %v", err)
	}

	got, err := m.GetService(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetService() error = %v", err)
	}
	if got.Status != store.StatusArchived {
		t.Fatalf("older draft status = %q, want archived", got.Status)
	}

	kinds := pendingKinds(t, m)
	if got := kinds[newer.ID]; len(got) != 1 || got[0] != store.UpdateChangeService {
		t.Fatalf("newer records = %v, want [change-service]", got)
	}
}

func TestApprove_ArchivesReplacedCurrentAndClearsLink(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	ctx := context.Background()

	current, _ := m.CreateService(ctx, store.Service{Name: "live", Status: store.StatusCurrent})
	draft, err := d.Submit(ctx, store.Service{Name: "edit", UpdateOfID: current.ID})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	approved, err := d.Approve(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != store.StatusCurrent {
		t.Fatalf("approved status = %q, want current", approved.Status)
	}
	if approved.UpdateOfID != 0 {
		t.Fatalf("UpdateOfID = %d, want 0", approved.UpdateOfID)
	}

	old, err := m.GetService(ctx, current.ID)
	if err != nil {
		t.Fatalf("GetService() error = %v", err)
	}
	if old.Status != store.StatusArchived {
		t.Fatalf("replaced status = %q, want archived", old.Status)
	}
}

func TestApprove_RejectsNonDraft(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	ctx := context.Background()

	current, _ := m.CreateService(ctx, store.Service{Status: store.StatusCurrent})
	if _, err := d.Approve(ctx, current.ID); !errors.Is(err, ErrNotDraft) {
		t.Fatalf("Approve(current) error = %v, want ErrNotDraft", err)
	}
}

func TestReject_MarksDraftRejected(t *testing.T) {
	t.Parallel()

	d, _ := newDirectory()
	ctx := context.Background()

	draft, err := d.Submit(ctx, store.Service{Name: "Some service"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	rejected, err := d.Reject(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != store.StatusRejected {
		t.Fatalf("status = %q, want rejected", rejected.Status)
	}
}

func TestCancel_KindDependsOnPreviousStatus(t *testing.T) {
	t.Parallel()

	d, m := newDirectory()
	ctx := context.Background()

	draft, err := d.Submit(ctx, store.Service{Name: "draft"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := d.Cancel(ctx, draft.ID); err != nil {
		t.Fatalf("Cancel(draft) error = %v", err)
	}

	current, _ := m.CreateService(ctx, store.Service{Name: "live", Status: store.StatusCurrent})
	if _, err := d.Cancel(ctx, current.ID); err != nil {
		t.Fatalf("Cancel(current) error = %v", err)
	}

	kinds := pendingKinds(t, m)
	wantDraft := []string{store.UpdateNewService, store.UpdateCancelDraft}
	if got := kinds[draft.ID]; len(got) != 2 || got[0] != wantDraft[0] || got[1] != wantDraft[1] {
		t.Fatalf("draft records = %v, want %v", got, wantDraft)
	}
	if got := kinds[current.ID]; len(got) != 1 || got[0] != store.UpdateCancelCurrent {
		t.Fatalf("current records = %v, want [cancel-current-service]", got)
	}

	canceled, _ := m.GetService(ctx, current.ID)
	if _, err := d.Cancel(ctx, canceled.ID); !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("Cancel(canceled) error = %v, want ErrNotCancelable", err)
	}
}
