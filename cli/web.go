// ABOUTME: Web UI subcommand
// ABOUTME: Serves the kanban board and JSON API until interrupted
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/web"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// WebCommand runs the web server on addr until ctx is cancelled.
func WebCommand(ctx context.Context, svc views.Services, addr string, log *logrus.Entry) error {
	server, err := web.NewServer(ctx, addr, svc, log)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	fmt.Fprintf(stdout, "✓ Pipeline board at http://%s\n", addr)

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
