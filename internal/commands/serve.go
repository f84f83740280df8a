package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klabast/wb-services/attendance/internal/app"
	"github.com/klabast/wb-services/attendance/internal/attendance"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP JSON API",
		Long: `Serves the attendance API. Mutating routes require HTTP Basic Auth
when an auth file exists (see "attendance hash-password").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	auth, err := app.LoadAuth(c.cfg.AuthFile, c.log)
	if err != nil {
		return err
	}

	st, err := c.openStack(attendance.WithSink(func(o attendance.Overview) {
		c.log.Info("overview updated",
			zap.Int("present", o.Present),
			zap.Int("total", o.Total),
			zap.Int("percentage", o.Percentage),
			zap.Int("daily_marked", o.DailyMarked))
	}))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			c.log.Warn("failed to close store", zap.Error(err))
		}
	}()
	st.aggregator.Start()

	srv := app.NewServer(app.Deps{
		Registry:   st.registry,
		Daily:      st.daily,
		Aggregator: st.aggregator,
		Auth:       auth,
		Config:     c.cfg,
		Log:        c.log,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.log.Info("starting attendance API",
			zap.String("addr", "http://localhost"+httpServer.Addr),
			zap.String("backend", c.cfg.Backend),
			zap.String("data_dir", c.cfg.DataDir),
			zap.Bool("auth", auth.Enabled()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
