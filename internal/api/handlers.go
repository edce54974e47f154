package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"cdr.dev/slog"
	"github.com/gin-gonic/gin"

	"github.com/eventkit/bannergen/internal/batch"
	"github.com/eventkit/bannergen/internal/event"
	imagepkg "github.com/eventkit/bannergen/internal/image"
	"github.com/eventkit/bannergen/internal/log"
	tmpl "github.com/eventkit/bannergen/internal/template"
)

const maxQRSize = 2048

// Renderer renders one event with one template without writing it.
type Renderer interface {
	Render(ctx context.Context, ev event.Event, ref string) (batch.Rendered, error)
}

type Handlers struct {
	Renderer Renderer
	// Ctx carries the logger for request handling.
	Ctx context.Context
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
		return
	}
	size := imagepkg.DefaultQRSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		v, err := strconv.Atoi(sizeStr)
		if err != nil || v <= 0 || v > maxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// bannerHandler renders the event in the request body. The template is
// taken from the "template" query param, else the event's first template.
// format=svg returns the filled in document of a vector template.
func (h *Handlers) bannerHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := event.ParseBytes(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref := c.Query("template")
	if ref == "" {
		ref = ev.Templates[0]
	}

	ctx := c.Request.Context()
	if h.Ctx != nil {
		ctx = log.Fork(ctx, h.Ctx)
	}
	r, err := h.Renderer.Render(ctx, ev, ref)
	if err != nil {
		log.Warn(ctx, "preview failed", slog.F("template", ref), slog.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, tmpl.ErrTooManySpeakers) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "svg" {
		if r.SVG == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "template " + ref + " is not a vector template"})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", r.SVG)
		return
	}
	b, err := imagepkg.EncodePNG(r.Image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
