package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/providerhub/providerhub/internal/config"
	httpapp "github.com/providerhub/providerhub/internal/http"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/notify"
	"github.com/providerhub/providerhub/internal/store"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP server and the review notifier loop.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	s := store.NewPG(pool)

	sessions := scs.New()
	sessions.Store = pgxstore.New(pool)
	sessions.Lifetime = 12 * time.Hour
	sessions.Cookie.Secure = cfg.AuthCookieSecure

	mailer := newMailer(cfg)

	srv, err := httpapp.NewEchoServer(cfg, s, sessions, mailer)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	notifier := &notify.Notifier{Store: s, Mailer: mailer, ReviewEmail: cfg.ReviewEmail}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.ReviewEmail != "" {
		g.Go(func() error {
			notifier.Run(gctx, cfg.NotifyInterval)
			return nil
		})
	} else {
		slog.Info("REVIEW_EMAIL not set, review notifier disabled")
	}

	g.Go(func() error {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case err := <-orNever(metricsErrCh):
			return err
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// orNever makes a nil channel safe to select on.
func orNever(ch <-chan error) <-chan error {
	if ch != nil {
		return ch
	}
	return make(chan error)
}

func newMailer(cfg config.Config) mail.Mailer {
	if cfg.SMTPAddr == "" {
		return &mail.Log{Logger: slog.Default()}
	}
	return &mail.SMTP{Addr: cfg.SMTPAddr, From: cfg.MailFrom}
}
