package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Rasterizer turns an SVG document into a bitmap of exactly width x height.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, width, height int) (image.Image, error)
}

// PlaywrightRasterizer renders SVG in headless Chromium. The browser is
// started on first use and reused until Close.
type PlaywrightRasterizer struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func NewPlaywrightRasterizer() *PlaywrightRasterizer {
	return &PlaywrightRasterizer{}
}

func (r *PlaywrightRasterizer) start() error {
	if r.page != nil {
		return nil
	}
	pw, err := playwright.Run()
	if err != nil {
		// driver or browser missing: install and retry once
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
		pw, err = playwright.Run()
		if err != nil {
			return err
		}
	}
	browser, err := pw.Chromium.Launch()
	if err != nil {
		pw.Stop()
		return err
	}
	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return err
	}
	r.pw, r.browser, r.page = pw, browser, page
	return nil
}

func (r *PlaywrightRasterizer) Rasterize(ctx context.Context, svg []byte, width, height int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if err := r.page.SetViewportSize(width, height); err != nil {
		return nil, err
	}
	doc := `<!DOCTYPE html><html><head><style>html,body{margin:0;padding:0;overflow:hidden}</style></head><body>` +
		string(trimXMLDecl(svg)) + `</body></html>`
	if err := r.page.SetContent(doc); err != nil {
		return nil, err
	}
	b, err := r.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
		Clip: &playwright.Rect{X: 0, Y: 0, Width: float64(width), Height: float64(height)},
	})
	if err != nil {
		return nil, err
	}
	img, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return FitCanvas(img, width, height), nil
}

func (r *PlaywrightRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	if err := r.browser.Close(); err != nil {
		return err
	}
	err := r.pw.Stop()
	r.pw, r.browser, r.page = nil, nil, nil
	return err
}

var _ Rasterizer = (*PlaywrightRasterizer)(nil)

// trimXMLDecl strips a leading XML declaration, which is not valid inside
// an HTML body.
func trimXMLDecl(svg []byte) []byte {
	if bytes.HasPrefix(svg, []byte("<?xml")) {
		if i := bytes.Index(svg, []byte("?>")); i >= 0 {
			return bytes.TrimLeft(svg[i+2:], "\r\n\t ")
		}
	}
	return svg
}
