// Package cli implements the bannergen command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/spf13/pflag"
	"oss.terrastruct.com/util-go/xmain"

	"github.com/eventkit/bannergen/internal/batch"
	"github.com/eventkit/bannergen/internal/config"
	"github.com/eventkit/bannergen/internal/event"
	"github.com/eventkit/bannergen/internal/log"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const noArgs = `No arguments found
To use this tool pass at least one .json file path similar to example.json`

func Run(ctx context.Context, ms *xmain.State) (err error) {
	def := config.Default()
	cacheFlag := ms.Opts.String(config.EnvCacheDir, "cache-dir", "", def.CacheDir, "directory where downloaded avatars are kept. Entries never expire.")
	outFlag := ms.Opts.String(config.EnvOutputDir, "out", "o", def.OutputDir, "directory rendered banners are written to")
	templatesFlag := ms.Opts.String(config.EnvTemplates, "templates", "t", def.TemplatesDir, "directory of template descriptors and SVG documents")
	fallbackFlag := ms.Opts.String(config.EnvFallback, "fallback", "", def.FallbackAvatar, "image used for speakers without a github handle")
	profileFlag := ms.Opts.String(config.EnvProfileURL, "profile-url", "", def.ProfileURL, "base URL of the profile pages avatars are scraped from")
	timeoutFlag, err := ms.Opts.Int64(config.EnvTimeout, "timeout", "", int64(def.Timeout/time.Second), "seconds before a profile or avatar request is abandoned")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		return err
	}
	watchFlag, err := ms.Opts.Bool(config.EnvWatch, "watch", "w", false, "keep running and re-render event files when they change")
	if err != nil {
		return err
	}
	dateFlag := ms.Opts.String("", "date", "", "", "comma separated event dates to render. Other events are skipped.")
	onlyFlag := ms.Opts.String("", "only", "", "", "comma separated templates to render. Other templates are skipped.")
	matchFlag := ms.Opts.String("", "match", "", "", "words that must all appear in the event title, subtitle or a speaker name")
	portFlag := ms.Opts.String(config.EnvPort, "port", "p", "8080", "listening port of the serve subcommand")

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}
	if err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}

	ctx = log.Writer(ctx, ms.Stderr, *debugFlag)

	cfg := config.Config{
		CacheDir:       *cacheFlag,
		OutputDir:      *outFlag,
		TemplatesDir:   *templatesFlag,
		FallbackAvatar: *fallbackFlag,
		ProfileURL:     *profileFlag,
		Timeout:        time.Duration(*timeoutFlag) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return xmain.UsageErrorf("%v", err)
	}

	args := ms.Opts.Flags.Args()
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			if len(args) > 1 {
				return xmain.UsageErrorf("serve accepts no arguments")
			}
			return serveCmd(ctx, ms, cfg, *portFlag)
		case "version":
			if len(args) > 1 {
				return xmain.UsageErrorf("version subcommand accepts no arguments")
			}
			fmt.Fprintln(ms.Stdout, Version)
			return nil
		}
	}
	if len(args) == 0 {
		return xmain.UsageErrorf(noArgs)
	}

	filter := event.FilterOptions{
		Dates:     splitList(*dateFlag),
		Templates: splitList(*onlyFlag),
		FreeWords: *matchFlag,
	}
	d, err := batch.New(ctx, cfg, batch.WithFilter(filter))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			log.Warn(ctx, "failed to stop rasterizer", slog.Error(cerr))
		}
	}()

	sum, err := d.Run(ctx, args)
	if *watchFlag {
		if err != nil {
			ms.Log.Warn.Printf("%d of %d banners failed", sum.Failed, sum.Units)
		}
		return watch(ctx, ms, d, args)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return xmain.ExitErrorf(1, "%d failure(s) rendering %d banner(s) from %d file(s)", sum.Failed, sum.Units, sum.Files)
	}
	ms.Log.Success.Printf("rendered %d banner(s) from %d file(s)", sum.Units, sum.Files)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--flags] event.json [event2.json roster.csv ...]
  %[1]s serve [--port 8080]
  %[1]s version

%[1]s renders speaker banners from JSON event descriptions.

Flags:
%[3]s
`, ms.Name, Version, ms.Opts.Defaults())
}
