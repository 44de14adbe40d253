// Package cli implements the interactive document shell: a small REPL over
// the remote client, the local mirror, and the sync coordinator.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mkraev/dockeep/internal/config"
	"github.com/mkraev/dockeep/internal/localcache"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/remote"
	"github.com/mkraev/dockeep/internal/syncer"
)

type App struct {
	config *config.ClientConfig
	client *remote.Client
	cache  *localcache.Cache
	coord  *syncer.Coordinator
	log    logging.Logger

	userName string
	userID   string
	reader   *bufio.Reader
}

func NewApp(c *config.ClientConfig, log logging.Logger) (*App, error) {
	cache, err := localcache.Open(c.CachePath, log)
	if err != nil {
		return nil, fmt.Errorf("opening local mirror: %w", err)
	}

	a := &App{
		config: c,
		cache:  cache,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}
	a.client = remote.New(c.ServerURL, log,
		remote.WithTimeout(c.RequestTimeout),
		remote.WithAuthFailureHook(a.onAuthFailure),
	)
	return a, nil
}

// onAuthFailure runs after the client has purged the rejected credential.
// The session drops back to the logged-out prompt.
func (a *App) onAuthFailure() {
	fmt.Println("Session expired, please log in again.")
	a.coord = nil
	a.userName = ""
	a.userID = ""
}

func (a *App) isLoggedIn() bool {
	return a.coord != nil
}

func (a *App) status() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.coord != nil {
		s += string(a.coord.Mode())
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Run(ctx context.Context) {
	fmt.Println("Welcome to dockeep (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}
