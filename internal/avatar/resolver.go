// Package avatar resolves speaker handles to avatar images, keeping every
// downloaded picture in a permanent on-disk cache.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cdr.dev/slog"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	imagepkg "github.com/eventkit/bannergen/internal/image"
	"github.com/eventkit/bannergen/internal/log"
	"github.com/eventkit/bannergen/internal/util"
)

type Status int

const (
	// StatusFallback means no handle was given.
	StatusFallback Status = iota
	StatusCached
	StatusDownloaded
	// StatusFailed means the lookup or download failed; Err says why.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFallback:
		return "fallback"
	case StatusCached:
		return "cached"
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of resolving one handle. Path is only meaningful
// for StatusCached and StatusDownloaded.
type Result struct {
	Handle string
	Path   string
	Status Status
	Err    error
}

// Avatar is a ready to composite image plus its encoded bytes.
type Avatar struct {
	Image image.Image
	Data  []byte
	// Fallback is set when the placeholder image stands in.
	Fallback bool
}

type Resolver struct {
	cacheDir string
	lookup   Lookup
	client   *http.Client
	fallback Avatar
}

// fallbackSize is the edge of the generated placeholder used when no
// fallback image file is available.
const fallbackSize = 280

// NewResolver creates cacheDir if needed and loads the fallback image. A
// missing fallback file is replaced by a plain gray square so that the
// fallback path can never fail.
func NewResolver(ctx context.Context, cacheDir, fallbackPath string, lookup Lookup, client *http.Client) (*Resolver, error) {
	if err := util.EnsureDir(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create avatar cache: %w", err)
	}
	if client == nil {
		client = util.NewClient(0)
	}
	if lookup == nil {
		lookup = ProfileLookup{Client: client}
	}
	r := &Resolver{
		cacheDir: cacheDir,
		lookup:   lookup,
		client:   client,
	}
	fb, err := loadFile(fallbackPath)
	if err != nil {
		log.Warn(ctx, "fallback avatar unavailable, using a blank placeholder",
			slog.F("path", fallbackPath), slog.Error(err))
		img := imaging.New(fallbackSize, fallbackSize, color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff})
		data, err := imagepkg.EncodePNG(img)
		if err != nil {
			return nil, err
		}
		fb = Avatar{Image: img, Data: data}
	}
	fb.Fallback = true
	r.fallback = fb
	return r, nil
}

// CachePath is where the avatar of handle is stored.
func (r *Resolver) CachePath(handle string) string {
	return filepath.Join(r.cacheDir, handle+".jpeg")
}

// Resolve returns the cached avatar of handle, downloading it on a miss.
func (r *Resolver) Resolve(ctx context.Context, handle string) Result {
	handle = strings.TrimSpace(handle)
	res := Result{Handle: handle}
	if handle == "" {
		res.Status = StatusFallback
		return res
	}
	if !validHandle(handle) {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("invalid handle %q", handle)
		return res
	}

	p := r.CachePath(handle)
	if util.FileExists(p) {
		res.Path = p
		res.Status = StatusCached
		return res
	}

	if err := r.download(ctx, handle, p); err != nil {
		log.Error(ctx, "failed to fetch avatar", slog.F("handle", handle), slog.Error(err))
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	log.Debug(ctx, "avatar cached", slog.F("handle", handle), slog.F("path", p))
	res.Path = p
	res.Status = StatusDownloaded
	return res
}

func (r *Resolver) download(ctx context.Context, handle, p string) error {
	u, err := r.lookup.AvatarURL(ctx, handle)
	if err != nil {
		return err
	}
	body, _, err := imagepkg.DownloadImage(ctx, r.client, u)
	if err != nil {
		return fmt.Errorf("failed to download avatar: %w", err)
	}
	return util.WriteFileAtomic(p, body)
}

// ResolveAll resolves every handle concurrently and returns the results in
// input order. Repeated handles are fetched once. The error is non-nil only
// when ctx ends before every handle is resolved.
func (r *Resolver) ResolveAll(ctx context.Context, handles []string) ([]Result, error) {
	out := make([]Result, len(handles))
	first := make(map[string]int, len(handles))
	eg, egctx := errgroup.WithContext(ctx)
	for i, h := range handles {
		key := strings.TrimSpace(h)
		if _, ok := first[key]; ok {
			continue
		}
		first[key] = i
		i, h := i, h
		eg.Go(func() error {
			out[i] = r.Resolve(egctx, h)
			return egctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for i, h := range handles {
		if j := first[strings.TrimSpace(h)]; j != i {
			out[i] = out[j]
		}
	}
	return out, nil
}

// Load decodes the image behind res. Failed results and undecodable cache
// files degrade to the fallback avatar.
func (r *Resolver) Load(ctx context.Context, res Result) Avatar {
	switch res.Status {
	case StatusCached, StatusDownloaded:
		a, err := loadFile(res.Path)
		if err == nil {
			return a
		}
		log.Warn(ctx, "cached avatar unreadable, using fallback",
			slog.F("handle", res.Handle), slog.F("path", res.Path), slog.Error(err))
	case StatusFailed:
		log.Warn(ctx, "using fallback avatar", slog.F("handle", res.Handle), slog.Error(res.Err))
	}
	return r.fallback
}

// Avatars resolves and loads the avatar of every handle, in order.
func (r *Resolver) Avatars(ctx context.Context, handles []string) ([]Avatar, error) {
	results, err := r.ResolveAll(ctx, handles)
	if err != nil {
		return nil, err
	}
	out := make([]Avatar, len(results))
	for i, res := range results {
		out[i] = r.Load(ctx, res)
	}
	return out, nil
}

func loadFile(p string) (Avatar, error) {
	if p == "" {
		return Avatar{}, errors.New("no path")
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Avatar{}, err
	}
	img, err := imagepkg.Decode(data)
	if err != nil {
		return Avatar{}, err
	}
	return Avatar{Image: img, Data: data}, nil
}

func validHandle(h string) bool {
	return h != "." && h != ".." && !strings.ContainsAny(h, `/\`) && !strings.ContainsRune(h, 0)
}
