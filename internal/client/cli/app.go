// Package cli implements the interactive LinkStash client: a REPL over the
// local repositories with on-demand synchronization.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/linkstash/internal/client/bus"
	"github.com/dmitrijs2005/linkstash/internal/client/config"
	"github.com/dmitrijs2005/linkstash/internal/client/remote"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/categories"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/links"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/notes"
	"github.com/dmitrijs2005/linkstash/internal/client/session"
	"github.com/dmitrijs2005/linkstash/internal/client/store"
	enginesync "github.com/dmitrijs2005/linkstash/internal/client/sync"
	"github.com/dmitrijs2005/linkstash/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	store   *store.Store
	bus     *bus.Bus
	gateway remote.Gateway
	tracker *session.Tracker
	engine  *enginesync.Engine

	links      *links.Repository
	categories *categories.Repository
	notes      *notes.Repository

	reader *bufio.Reader
	out    io.Writer

	// dirty is flipped by the change bus and cleared when the prompt
	// re-renders, so the user sees that state moved underneath them.
	dirty bool
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	b := bus.New(log)
	gateway := remote.NewHTTPGateway(cfg.ServerEndpointAddr, log)
	tracker := session.New(st, b, log, cfg.SyncDelay)
	engine := enginesync.New(st, b, gateway, tracker, log)
	tracker.BindRunner(engine)

	linkRepo := links.New(st, b, gateway, tracker, log)
	catRepo := categories.New(st, b, gateway, tracker, linkRepo, log)
	noteRepo := notes.New(st, b, gateway, tracker, log)

	return &App{
		config:     cfg,
		log:        log,
		store:      st,
		bus:        b,
		gateway:    gateway,
		tracker:    tracker,
		engine:     engine,
		links:      linkRepo,
		categories: catRepo,
		notes:      noteRepo,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) Run(ctx context.Context) {
	unsubscribe := a.bus.Subscribe(func() { a.dirty = true })
	defer unsubscribe()

	fmt.Fprintln(a.out, "LinkStash. Type 'help' for commands.")
	a.repl(ctx)
}
