package main

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

	"openpo/internal/server"
	"openpo/internal/util"
)

var (
	servePort int
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history and current plan over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the status page in a browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		appCfg.Server.Port = servePort
	}

	c, st, err := newCoordinator()
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", appCfg.Server.Port),
		Handler:           server.NewServer(appCfg, st, c, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	if serveOpen {
		url := fmt.Sprintf("http://localhost:%d/api/status", appCfg.Server.Port)
		if err := util.OpenBrowser(url); err != nil {
			log.Warn("could not open browser", zap.String("url", url), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
