package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkraev/dockeep/internal/flagx"
)

// parseClientFlags populates selected ClientConfig fields from flags.
//
// Supported flags:
//
//	-a string   base URL of the document server
//	-f string   local mirror file
//	-t int      request timeout in seconds
func parseClientFlags(cfg *ClientConfig) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the document server")
	fs.StringVar(&cfg.CachePath, "f", cfg.CachePath, "local mirror file")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
