package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goserg/blockcleaner/bot/notify"
	"github.com/goserg/blockcleaner/internal/metrics"
	"github.com/goserg/blockcleaner/internal/web"
	"github.com/goserg/blockcleaner/internal/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(rt.log)

			w := worker.New(a.engine, rt.log)
			defer w.Close()

			srv, err := web.New(web.Params{
				Runs:     w,
				Session:  a.session,
				Cache:    a.cache,
				Defaults: a.defaults,
				Mode:     rt.cfg.Client.Mode,
				CanClean: a.engine.CanClean(),
			}, rt.cfg.Server, rt.log)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.Serve(ctx)
			})
			if addr := rt.cfg.Server.MetricsAddr; addr != "" {
				g.Go(func() error {
					return serveMetrics(ctx, addr, rt.log)
				})
			}
			if rt.cfg.Notify.TelegramToken != "" && rt.cfg.Notify.ChatID != 0 {
				n, err := notify.New(rt.cfg.Notify, rt.cfg.Server.Debug, w, rt.log)
				if err != nil {
					return err
				}
				g.Go(func() error {
					return n.Run(ctx, w.Events())
				})
			} else {
				g.Go(func() error {
					discard(ctx, w.Events())
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func serveMetrics(ctx context.Context, addr string, log *logrus.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("metrics listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// discard keeps the event queue moving when nothing is subscribed.
func discard(ctx context.Context, events <-chan worker.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
		}
	}
}
