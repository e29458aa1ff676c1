package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/providerhub/providerhub/internal/config"
	"github.com/providerhub/providerhub/internal/notify"
	"github.com/providerhub/providerhub/internal/store"
)

var (
	notifyOnce bool

	errReviewEmailRequired = errors.New("REVIEW_EMAIL must be set for the notify command")
)

// notifyCmd runs the review notifier without the HTTP server, for
// deployments that schedule it externally.
var notifyCmd = &cobra.Command{
	Use:         "notify",
	Short:       "Mail the review inbox about pending service listing changes.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.ReviewEmail == "" {
			return &exitError{code: 2, err: errReviewEmailRequired}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		notifier := &notify.Notifier{
			Store:       store.NewPG(pool),
			Mailer:      newMailer(cfg),
			ReviewEmail: cfg.ReviewEmail,
		}

		if notifyOnce {
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			return notifier.RunOnce(runCtx)
		}

		slog.Info("notifier running", "interval", cfg.NotifyInterval.String())
		notifier.Run(ctx, cfg.NotifyInterval)
		return nil
	},
}

func init() {
	notifyCmd.Flags().BoolVar(&notifyOnce, "once", false, "process one batch and exit")
}
