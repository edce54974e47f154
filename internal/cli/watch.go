package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"cdr.dev/slog"
	"github.com/fsnotify/fsnotify"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/eventkit/bannergen/internal/batch"
	"github.com/eventkit/bannergen/internal/log"
)

// watch re-renders an event file whenever it is written. Directories are
// watched rather than files, since editors often replace files on save.
func watch(ctx context.Context, ms *xmain.State, d *batch.Driver, paths []string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	watched := make(map[string]string, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	ms.Log.Info.Printf("watching %d event file(s) for changes", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "watch error", slog.Error(err))
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			p, ok := watched[abs]
			if !ok {
				continue
			}
			var sum batch.Summary
			if err := d.RenderFile(ctx, p, &sum); err != nil {
				ms.Log.Error.Printf("%s: %v", p, err)
				continue
			}
			ms.Log.Success.Printf("re-rendered %s (%d banner(s))", p, len(sum.Written))
		}
	}
}
