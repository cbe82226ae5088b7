package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"proposal_sync/platform/httpkit"
	"proposal_sync/platform/logger"
)

const shutdownTimeout = 10 * time.Second

// NewRouter exposes /healthz and /status.
func NewRouter(tracker *Tracker, log *logger.Logger) *gin.Engine {
	engine := httpkit.NewEngine(log, httpkit.NewClientThrottle(10, 20, log))

	engine.GET("/healthz", func(c *gin.Context) {
		httpkit.JSON(c, http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/status", func(c *gin.Context) {
		httpkit.JSON(c, http.StatusOK, tracker.Snapshot())
	})
	engine.NoRoute(func(c *gin.Context) {
		httpkit.Fail(c, http.StatusNotFound, "not found")
	})
	return engine
}

// Serve runs the status server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("status server listening", "addr", addr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-srvErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
