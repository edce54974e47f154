package main

import (
	stdlog "log"

	"oss.terrastruct.com/util-go/xmain"

	"github.com/eventkit/bannergen/internal/cli"
	"github.com/eventkit/bannergen/internal/config"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		stdlog.Printf("warning: %v", err)
	}
	xmain.Main(cli.Run)
}
