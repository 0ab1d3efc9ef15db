package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

func (a *App) prompt() string {
	mark := ""
	if a.dirty {
		mark = "*"
		a.dirty = false
	}
	if owner := a.tracker.Owner(); owner != "" {
		return fmt.Sprintf("linkstash%s> ", mark)
	}
	return fmt.Sprintf("guest%s> ", mark)
}

func (a *App) repl(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Fprint(a.out, a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(a.out, "read error: %v\n", err)
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "register":
			a.cmdRegister(ctx)
		case "login":
			a.cmdLogin(ctx)
		case "logout":
			a.cmdLogout(ctx)
		case "add":
			a.cmdAddLink(ctx, args)
		case "addfile":
			a.cmdAddFile(ctx, args)
		case "addcat":
			a.cmdAddCategory(ctx)
		case "addnote":
			a.cmdAddNote(ctx)
		case "list":
			a.cmdList(ctx)
		case "del":
			a.cmdDelete(ctx, args)
		case "move":
			a.cmdMove(ctx, args)
		case "import":
			a.cmdImport(ctx, args)
		case "sync":
			a.cmdSync(ctx)
		case "status":
			a.cmdStatus()
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(a.out, "unknown command %q, try 'help'\n", cmd)
		}
	}
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `Commands:
  register          create an account
  login             sign in (schedules a sync)
  logout            sign out and erase the local cache
  add <url> [name]  save a link
  addfile <path>    save a link backed by a local file
  addcat            create a category
  addnote           create a note
  list              show links, categories and notes
  del <kind> <id>   soft-delete an entity (kind: link|cat|note)
  move <from> <to>  reorder links (visible indexes)
  import <path>     merge a JSON file of links into the cache
  sync              reconcile with the server now
  status            show the last sync outcome
  quit              leave
`)
}
