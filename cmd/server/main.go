package main

import (
	"context"
	"log"

	"github.com/mkraev/dockeep/internal/api"
	"github.com/mkraev/dockeep/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadServer()

	app, err := api.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
