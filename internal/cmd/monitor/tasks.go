package monitor

import (
	"context"
	"errors"
	"github.com/clambin/tank-monitor/internal/broker"
	"github.com/clambin/tank-monitor/internal/updater"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type httpServer struct {
	addr    string
	handler http.Handler
}

func (s httpServer) Run(ctx context.Context) error {
	srv := http.Server{Addr: s.addr, Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reloader reloads the tank database on SIGHUP, so changes made to the file become active.
type reloader struct {
	updater *updater.Updater
	router  *broker.Router
	logger  *slog.Logger
}

func (r *reloader) Run(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			r.reload(ctx)
		}
	}
}

func (r *reloader) reload(ctx context.Context) {
	if err := r.updater.Load(); err != nil {
		r.logger.Error("failed to reload tanks", "err", err)
		return
	}
	if err := r.router.Refresh(ctx); err != nil {
		r.logger.Warn("failed to refresh subscriptions", "err", err)
	}
	if err := r.updater.PublishSnapshot(ctx); err != nil {
		r.logger.Warn("failed to publish snapshot", "err", err)
	}
}
