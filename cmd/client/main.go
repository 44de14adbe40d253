package main

import (
	"context"
	"log"
	"os"

	"github.com/mkraev/dockeep/internal/buildinfo"
	"github.com/mkraev/dockeep/internal/cli"
	"github.com/mkraev/dockeep/internal/config"
	"github.com/mkraev/dockeep/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadClient()

	app, err := cli.NewApp(cfg, logging.NewDefault())
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
