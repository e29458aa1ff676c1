// Package directory implements the service listing lifecycle: providers
// submit drafts, staff approve or reject them, providers cancel them. Every
// transition appends an update record consumed by the review notifier.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/providerhub/providerhub/internal/store"
)

var (
	ErrNotDraft      = errors.New("directory: service is not a draft")
	ErrNotCancelable = errors.New("directory: only draft or current services can be canceled")
)

type Directory struct {
	Store store.Store
}

func New(s store.Store) *Directory {
	return &Directory{Store: s}
}

// Submit stores a new draft service. Rules carried by the listing history:
// a draft that updates a top-level draft simply replaces it (the old draft
// is archived), and a draft that updates a current record archives any
// sibling drafts of the same record so no more than one pending edit exists
// at a time.
func (d *Directory) Submit(ctx context.Context, service store.Service) (store.Service, error) {
	service.Status = store.StatusDraft

	if service.UpdateOfID != 0 {
		parent, err := d.Store.GetService(ctx, service.UpdateOfID)
		if err != nil {
			return store.Service{}, fmt.Errorf("directory: load update target: %w", err)
		}
		if parent.Status == store.StatusDraft && parent.UpdateOfID == 0 {
			if err := d.archive(ctx, parent.ID, store.UpdateCancelDraft); err != nil {
				return store.Service{}, err
			}
			service.UpdateOfID = 0
		}
	}

	created, err := d.Store.CreateService(ctx, service)
	if err != nil {
		return store.Service{}, err
	}

	if created.UpdateOfID != 0 {
		siblings, err := d.Store.ListDraftUpdatesOf(ctx, created.UpdateOfID, created.ID)
		if err != nil {
			return store.Service{}, err
		}
		for _, sibling := range siblings {
			if err := d.archive(ctx, sibling.ID, store.UpdateCancelDraft); err != nil {
				return store.Service{}, err
			}
		}
		if err := d.record(ctx, created.ID, store.UpdateChangeService); err != nil {
			return store.Service{}, err
		}
	} else {
		if err := d.record(ctx, created.ID, store.UpdateNewService); err != nil {
			return store.Service{}, err
		}
	}

	return created, nil
}

// Approve promotes a draft to current. If the draft updates an existing
// current record, that record is archived and the link cleared.
func (d *Directory) Approve(ctx context.Context, id int64) (store.Service, error) {
	service, err := d.Store.GetService(ctx, id)
	if err != nil {
		return store.Service{}, err
	}
	if service.Status != store.StatusDraft {
		return store.Service{}, ErrNotDraft
	}

	if service.UpdateOfID != 0 {
		replaced, err := d.Store.GetService(ctx, service.UpdateOfID)
		if err != nil {
			return store.Service{}, err
		}
		if replaced.Status == store.StatusCurrent {
			if err := d.Store.UpdateServiceStatus(ctx, replaced.ID, store.StatusArchived); err != nil {
				return store.Service{}, err
			}
		}
		if err := d.Store.ClearServiceUpdateOf(ctx, service.ID); err != nil {
			return store.Service{}, err
		}
		service.UpdateOfID = 0
	}

	if err := d.Store.UpdateServiceStatus(ctx, service.ID, store.StatusCurrent); err != nil {
		return store.Service{}, err
	}
	service.Status = store.StatusCurrent
	return service, nil
}

// Reject marks a draft rejected.
func (d *Directory) Reject(ctx context.Context, id int64) (store.Service, error) {
	service, err := d.Store.GetService(ctx, id)
	if err != nil {
		return store.Service{}, err
	}
	if service.Status != store.StatusDraft {
		return store.Service{}, ErrNotDraft
	}
	if err := d.Store.UpdateServiceStatus(ctx, id, store.StatusRejected); err != nil {
		return store.Service{}, err
	}
	service.Status = store.StatusRejected
	return service, nil
}

// Cancel withdraws a pending draft or pulls a current service from the
// directory.
func (d *Directory) Cancel(ctx context.Context, id int64) (store.Service, error) {
	service, err := d.Store.GetService(ctx, id)
	if err != nil {
		return store.Service{}, err
	}

	var kind string
	switch service.Status {
	case store.StatusDraft:
		kind = store.UpdateCancelDraft
	case store.StatusCurrent:
		kind = store.UpdateCancelCurrent
	default:
		return store.Service{}, ErrNotCancelable
	}

	if err := d.Store.UpdateServiceStatus(ctx, id, store.StatusCanceled); err != nil {
		return store.Service{}, err
	}
	if err := d.record(ctx, id, kind); err != nil {
		return store.Service{}, err
	}
	service.Status = store.StatusCanceled
	return service, nil
}

func (d *Directory) archive(ctx context.Context, id int64, kind string) error {
	if err := d.Store.UpdateServiceStatus(ctx, id, store.StatusArchived); err != nil {
		return err
	}
	return d.record(ctx, id, kind)
}

// record appends an update record, tolerating replays: a transition that
// already has its ticket is not an error.
func (d *Directory) record(ctx context.Context, serviceID int64, kind string) error {
	_, err := d.Store.CreateUpdateRecord(ctx, serviceID, kind)
	if errors.Is(err, store.ErrDuplicateUpdateRecord) {
		return nil
	}
	return err
}
