package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"cdr.dev/slog"
	"github.com/gin-gonic/gin"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/eventkit/bannergen/internal/api"
	"github.com/eventkit/bannergen/internal/batch"
	"github.com/eventkit/bannergen/internal/config"
	"github.com/eventkit/bannergen/internal/log"
)

// serveCmd runs the preview API until ctx is canceled.
func serveCmd(ctx context.Context, ms *xmain.State, cfg config.Config, port string) error {
	d, err := batch.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           api.NewRouter(&api.Handlers{Renderer: d, Ctx: ctx}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	ms.Log.Info.Printf("listening on http://localhost:%s", port)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "unclean shutdown", slog.Error(err))
		}
		return nil
	}
}
