package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_CreateUserRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if _, err := m.CreateUser(ctx, CreateUserParams{Email: "joe@example.com"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := m.CreateUser(ctx, CreateUserParams{Email: "joe@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("CreateUser() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestMemory_ActivateUserConsumesKey(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	user, err := m.CreateUser(ctx, CreateUserParams{
		Email:         "joe@example.com",
		ActivationKey: "1234567890abcdef1234567890abcdef",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if _, err := m.GetUserByActivationKey(ctx, user.ActivationKey); err != nil {
		t.Fatalf("GetUserByActivationKey() error = %v", err)
	}

	if err := m.ActivateUser(ctx, user.ID); err != nil {
		t.Fatalf("ActivateUser() error = %v", err)
	}

	activated, err := m.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if !activated.IsActive {
		t.Fatal("user not active after ActivateUser")
	}
	if activated.ActivationKey != "" {
		t.Fatal("activation key survived activation")
	}
	if _, err := m.GetUserByActivationKey(ctx, user.ActivationKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("consumed key lookup error = %v, want ErrNotFound", err)
	}
}

func TestMemory_UpdatePasswordClearsResetKey(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	user, err := m.CreateUser(ctx, CreateUserParams{Email: "joe@example.com"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := m.SetResetKey(ctx, user.ID, "deadbeefdeadbeefdeadbeefdeadbeef", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SetResetKey() error = %v", err)
	}
	if err := m.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	updated, err := m.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if updated.PasswordHash != "new-hash" {
		t.Fatalf("PasswordHash = %q", updated.PasswordHash)
	}
	if updated.ResetKey != "" {
		t.Fatal("reset key survived password update")
	}
}

func TestMemory_UpdateRecordsUniquePerServiceAndKind(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	service, err := m.CreateService(ctx, Service{Name: "Some service", Status: StatusDraft})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}

	if _, err := m.CreateUpdateRecord(ctx, service.ID, UpdateNewService); err != nil {
		t.Fatalf("CreateUpdateRecord() error = %v", err)
	}
	if _, err := m.CreateUpdateRecord(ctx, service.ID, UpdateNewService); !errors.Is(err, ErrDuplicateUpdateRecord) {
		t.Fatalf("duplicate error = %v, want ErrDuplicateUpdateRecord", err)
	}
	if _, err := m.CreateUpdateRecord(ctx, service.ID, UpdateCancelDraft); err != nil {
		t.Fatalf("second kind error = %v", err)
	}
}

func TestMemory_PendingUpdateRecordsRespectLimitAndNotified(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		service, err := m.CreateService(ctx, Service{Status: StatusDraft})
		if err != nil {
			t.Fatalf("CreateService() error = %v", err)
		}
		if _, err := m.CreateUpdateRecord(ctx, service.ID, UpdateNewService); err != nil {
			t.Fatalf("CreateUpdateRecord() error = %v", err)
		}
	}

	pending, err := m.ListPendingUpdateRecords(ctx, 2)
	if err != nil {
		t.Fatalf("ListPendingUpdateRecords() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := m.MarkUpdateRecordNotified(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkUpdateRecordNotified() error = %v", err)
	}
	pending, err = m.ListPendingUpdateRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingUpdateRecords() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending after mark = %d, want 2", len(pending))
	}
}

func TestMemory_ListDraftUpdatesOfExcludes(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	current, _ := m.CreateService(ctx, Service{Status: StatusCurrent})
	d1, _ := m.CreateService(ctx, Service{Status: StatusDraft, UpdateOfID: current.ID})
	d2, _ := m.CreateService(ctx, Service{Status: StatusDraft, UpdateOfID: current.ID})

	drafts, err := m.ListDraftUpdatesOf(ctx, current.ID, d2.ID)
	if err != nil {
		t.Fatalf("ListDraftUpdatesOf() error = %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != d1.ID {
		t.Fatalf("drafts = %+v, want only %d", drafts, d1.ID)
	}
}
