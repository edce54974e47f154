// Package batch renders event files into banner images, one unit of work
// per (event, template) pair.
package batch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cdr.dev/slog"
	"go.uber.org/multierr"
	"oss.terrastruct.com/util-go/xdefer"

	"github.com/eventkit/bannergen/internal/avatar"
	"github.com/eventkit/bannergen/internal/config"
	"github.com/eventkit/bannergen/internal/event"
	imagepkg "github.com/eventkit/bannergen/internal/image"
	"github.com/eventkit/bannergen/internal/log"
	"github.com/eventkit/bannergen/internal/output"
	tmpl "github.com/eventkit/bannergen/internal/template"
	"github.com/eventkit/bannergen/internal/util"
)

type Driver struct {
	resolver   *avatar.Resolver
	store      tmpl.Store
	writer     output.Writer
	rasterizer imagepkg.Rasterizer

	lookup avatar.Lookup
	client *http.Client
	filter event.FilterOptions
}

type Option func(*Driver)

// WithRasterizer replaces the headless browser used for vector templates.
func WithRasterizer(r imagepkg.Rasterizer) Option {
	return func(d *Driver) { d.rasterizer = r }
}

// WithLookup replaces the profile page scraper.
func WithLookup(l avatar.Lookup) Option {
	return func(d *Driver) { d.lookup = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) { d.client = c }
}

// WithFilter restricts which events and templates are rendered.
func WithFilter(f event.FilterOptions) Option {
	return func(d *Driver) { d.filter = f }
}

// New prepares the cache and output directories of cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		store:  tmpl.Store{Dir: cfg.TemplatesDir},
		writer: output.Writer{Dir: cfg.OutputDir},
	}
	for _, o := range opts {
		o(d)
	}
	if d.client == nil {
		d.client = util.NewClient(cfg.Timeout)
	}
	if d.lookup == nil {
		d.lookup = avatar.ProfileLookup{BaseURL: cfg.ProfileURL, Client: d.client}
	}
	if d.rasterizer == nil {
		d.rasterizer = imagepkg.NewPlaywrightRasterizer()
	}
	if err := util.EnsureDir(cfg.OutputDir); err != nil {
		return nil, err
	}
	var err error
	d.resolver, err = avatar.NewResolver(ctx, cfg.CacheDir, cfg.FallbackAvatar, d.lookup, d.client)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Rendered is one finished unit that has not been written yet.
type Rendered struct {
	Template *tmpl.Template
	tmpl.Rendered
}

// Render produces the banner of ev with the template ref. Nothing is
// written to disk.
func (d *Driver) Render(ctx context.Context, ev event.Event, ref string) (Rendered, error) {
	return d.render(ctx, ev, ref, &eventAvatars{})
}

// eventAvatars holds the avatars of one event so every template of the
// event shares a single resolution.
type eventAvatars struct {
	avatars []avatar.Avatar
}

func (ea *eventAvatars) get(ctx context.Context, d *Driver, ev event.Event) ([]avatar.Avatar, error) {
	if ea.avatars == nil {
		a, err := d.resolver.Avatars(ctx, ev.Handles())
		if err != nil {
			return nil, err
		}
		ea.avatars = a
	}
	return ea.avatars, nil
}

func (d *Driver) render(ctx context.Context, ev event.Event, ref string, ea *eventAvatars) (_ Rendered, err error) {
	defer xdefer.Errorf(&err, "failed to render template %q", ref)

	t, err := d.store.Load(ref)
	if err != nil {
		return Rendered{}, err
	}
	for _, w := range t.Warnings {
		log.Warn(ctx, w, slog.F("template", ref))
	}
	pm, err := tmpl.Bind(t, len(ev.Speakers))
	if err != nil {
		return Rendered{}, err
	}
	avatars, err := ea.get(ctx, d, ev)
	if err != nil {
		return Rendered{}, err
	}
	out, err := pm.Render(ctx, ev, avatars, d.rasterizer)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Template: t, Rendered: out}, nil
}

// renderUnit renders and writes one (event, template) pair.
func (d *Driver) renderUnit(ctx context.Context, ev event.Event, ref string, ea *eventAvatars) ([]string, error) {
	r, err := d.render(ctx, ev, ref, ea)
	if err != nil {
		return nil, err
	}
	paths, err := d.writer.Write(ev, r.Template.Stem, r.Image, r.SVG)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, fmt.Sprintf("image for event %q is done", ev.Title),
		slog.F("template", ref), slog.F("paths", paths))
	return paths, nil
}

// Summary counts the work of one Run.
type Summary struct {
	Files   int
	Units   int
	Written []string
	Failed  int
}

// loadFile reads a JSON event or a CSV roster of events.
func loadFile(path string) ([]event.Event, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return event.LoadRoster(path)
	}
	ev, err := event.Load(path)
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// RenderFile renders every template requested by the events of path.
// A failing template does not stop its siblings.
func (d *Driver) RenderFile(ctx context.Context, path string, sum *Summary) (errs error) {
	sum.Files++
	evs, err := loadFile(path)
	if err != nil {
		sum.Failed++
		log.Error(ctx, "failed to load event", slog.F("file", path), slog.Error(err))
		return err
	}
	if !d.filter.IsZero() {
		n := len(evs)
		evs = event.Filter(evs, d.filter)
		log.Debug(ctx, "filtered events", slog.F("file", path), slog.F("kept", len(evs)), slog.F("total", n))
	}
	for _, ev := range evs {
		ea := &eventAvatars{}
		for _, ref := range ev.Templates {
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			sum.Units++
			paths, err := d.renderUnit(ctx, ev, ref, ea)
			if err != nil {
				sum.Failed++
				log.Error(ctx, "failed to render banner", slog.F("file", path), slog.F("template", ref), slog.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			sum.Written = append(sum.Written, paths...)
		}
	}
	return errs
}

// Run processes paths in order. Failures are isolated to their file or
// template and combined into the returned error.
func (d *Driver) Run(ctx context.Context, paths []string) (Summary, error) {
	var sum Summary
	var errs error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, d.RenderFile(ctx, p, &sum))
	}
	return sum, errs
}

func (d *Driver) Close() error {
	if c, ok := d.rasterizer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
