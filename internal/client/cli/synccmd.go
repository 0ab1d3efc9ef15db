package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkstash/internal/common"
)

func (a *App) cmdSync(ctx context.Context) {
	err := a.engine.Run(ctx)
	switch {
	case errors.Is(err, common.ErrNotSignedIn):
		fmt.Fprintln(a.out, "not signed in")
		return
	case errors.Is(err, common.ErrSyncInProgress):
		fmt.Fprintln(a.out, "a sync is already running")
		return
	}
	a.cmdStatus()
}

func (a *App) cmdStatus() {
	state := a.engine.State()
	fmt.Fprintf(a.out, "sync: %s", state.Status)
	if state.Message != "" {
		fmt.Fprintf(a.out, " (%s)", state.Message)
	}
	if !state.LastSync.IsZero() {
		fmt.Fprintf(a.out, ", last success %s", state.LastSync.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(a.out)
}
