package cli

import (
	"context"
	"fmt"
)

func (a *App) cmdRegister(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.gateway.Register(ctx, username, password); err != nil {
		fmt.Fprintf(a.out, "registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "registered, you can login now")
}

func (a *App) cmdLogin(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	ownerID, err := a.gateway.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintf(a.out, "login failed: %v\n", err)
		return
	}

	a.tracker.SetSession(ctx, ownerID)
	fmt.Fprintln(a.out, "signed in, sync scheduled")
}

func (a *App) cmdLogout(ctx context.Context) {
	a.gateway.Logout()
	a.tracker.SetSession(ctx, "")
	fmt.Fprintln(a.out, "signed out, local cache erased")
}
