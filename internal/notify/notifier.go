// Package notify batches pending update records into a single review mail.
// It replaces per-change tickets with a digest: each run collects every
// record not yet notified, mails the review inbox once, and marks the batch
// done so a crash between mail and mark at worst repeats lines.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

const defaultBatchSize = 200

// Notifier drains pending update records and mails the review inbox.
type Notifier struct {
	Store       store.Store
	Mailer      mail.Mailer
	ReviewEmail string
	BatchSize   int32
}

// RunOnce processes at most one batch. It is safe to call concurrently with
// submits; records created mid-run are picked up next time.
func (n *Notifier) RunOnce(ctx context.Context) error {
	limit := n.BatchSize
	if limit <= 0 {
		limit = defaultBatchSize
	}

	records, err := n.Store.ListPendingUpdateRecords(ctx, limit)
	if err != nil {
		metrics.NotifierRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("notify: list pending records: %w", err)
	}
	metrics.NotifierPendingRecords.Set(float64(len(records)))
	if len(records) == 0 {
		metrics.NotifierRunsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := fmt.Sprintf("%s: service #%d", r.Kind, r.ServiceID)
		if svc, err := n.Store.GetService(ctx, r.ServiceID); err == nil && svc.Name != "" {
			line = fmt.Sprintf("%s: %s", r.Kind, svc.Name)
		}
		lines = append(lines, line)
	}

	if err := n.Mailer.Send(ctx, mail.ReviewNotice(n.ReviewEmail, lines)); err != nil {
		metrics.NotifierRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("notify: send review notice: %w", err)
	}

	for _, r := range records {
		if err := n.Store.MarkUpdateRecordNotified(ctx, r.ID); err != nil {
			metrics.NotifierRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("notify: mark record %d: %w", r.ID, err)
		}
	}

	metrics.NotifierRunsTotal.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "review notice sent", "records", len(records), "to", n.ReviewEmail)
	return nil
}

// Run loops RunOnce on the interval until ctx is done. The first run fires
// immediately at startup.
func (n *Notifier) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	if err := n.RunOnce(ctx); err != nil {
		slog.Error("initial notifier run failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.RunOnce(ctx); err != nil {
				slog.Error("notifier run failed", "err", err)
			}
		}
	}
}
