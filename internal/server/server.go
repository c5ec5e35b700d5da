package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"arbiter/adapters/api"
	"arbiter/internal/container"
	"arbiter/ui"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Run serves the JSON API on PORT and the report viewer on UI_PORT until ctx
// is cancelled or either server fails
func Run(ctx context.Context, c *container.Container) error {
	logger := c.Logger.With("Server")
	gin.SetMode(c.Config.Server.GinMode)

	handler := api.NewAnalysisHandler(c.Service, c.Logger)
	apiServer := &http.Server{
		Addr:              ":" + c.Config.Server.Port,
		Handler:           api.NewRouter(handler, c.Registry, c.Logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	viewer, err := ui.NewApp(c.Service, c.Logger)
	if err != nil {
		return err
	}
	uiServer := &http.Server{
		Addr:              ":" + c.Config.Server.UIPort,
		Handler:           viewer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, uiServer} {
		srv := srv
		g.Go(func() error {
			logger.Info("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return stderrors.Join(apiServer.Shutdown(shutdownCtx), uiServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
