package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/linkstash/internal/client/models"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/categories"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/links"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/filex"
)

func parseLinkType(s string) models.LinkType {
	switch strings.ToLower(s) {
	case "video":
		return models.LinkTypeVideo
	case "document", "doc":
		return models.LinkTypeDocument
	default:
		return models.LinkTypeWeb
	}
}

func (a *App) cmdAddLink(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: add <url> [name]")
		return
	}
	url := args[0]
	name := strings.Join(args[1:], " ")

	kind, err := GetSimpleText(a.reader, "Type (web/video/document, default web)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	link := a.links.Add(ctx, links.AddParams{
		URL:  url,
		Name: name,
		Type: parseLinkType(kind),
	})
	fmt.Fprintf(a.out, "added link %s (%s)\n", link.DisplayName(), link.ID)
}

func (a *App) cmdAddFile(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: addfile <path>")
		return
	}

	name, data, err := filex.ReadCapped(args[0], common.MaxUploadBytes)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	params := links.AddParams{
		URL:      "file://" + name,
		Name:     name,
		Type:     models.LinkTypeDocument,
		FileName: name,
	}

	if a.tracker.Owner() != "" {
		url, err := a.gateway.UploadFile(ctx, name, data)
		if err != nil {
			fmt.Fprintf(a.out, "upload failed, keeping file locally: %v\n", err)
			params.FileData = data
		} else {
			params.FileURL = url
		}
	} else {
		// Guest mode: the payload lives in memory until a session exists.
		params.FileData = data
	}

	link := a.links.Add(ctx, params)
	fmt.Fprintf(a.out, "added file link %s (%s)\n", link.DisplayName(), link.ID)
}

func (a *App) cmdAddCategory(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Category name", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	kind, err := GetSimpleText(a.reader, "Type (web/video/document, default web)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	cat := a.categories.Add(ctx, categories.AddParams{Name: name, Type: parseLinkType(kind)})
	fmt.Fprintf(a.out, "added category %s (%s)\n", cat.Name, cat.ID)
}

func (a *App) cmdAddNote(ctx context.Context) {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	body, err := GetSimpleText(a.reader, "Body", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	note := a.notes.Add(ctx, title, body)
	fmt.Fprintf(a.out, "added note %s (%s)\n", note.Title, note.ID)
}

func (a *App) cmdList(ctx context.Context) {
	cats := a.categories.Get(ctx)
	catNames := make(map[string]string, len(cats))
	fmt.Fprintln(a.out, "Categories:")
	for _, c := range cats {
		catNames[c.ID] = c.Name
		fmt.Fprintf(a.out, "  [%s] %s (%s)\n", c.Type, c.Name, c.ID)
	}

	fmt.Fprintln(a.out, "Links:")
	for i, l := range a.links.Get(ctx) {
		pin := " "
		if l.IsPinned {
			pin = "*"
		}
		cat := catNames[l.CategoryID]
		if cat != "" {
			cat = " #" + cat
		}
		fmt.Fprintf(a.out, "  %2d%s %s%s (%s)\n", i, pin, l.DisplayName(), cat, l.ID)
	}

	fmt.Fprintln(a.out, "Notes:")
	for _, n := range a.notes.Get(ctx) {
		fmt.Fprintf(a.out, "   - %s (%s)\n", n.Title, n.ID)
	}
}

func (a *App) cmdDelete(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: del <link|cat|note> <id>")
		return
	}
	switch args[0] {
	case "link":
		a.links.Delete(ctx, args[1])
	case "cat":
		a.categories.Delete(ctx, args[1])
	case "note":
		a.notes.Delete(ctx, args[1])
	default:
		fmt.Fprintln(a.out, "usage: del <link|cat|note> <id>")
		return
	}
	fmt.Fprintln(a.out, "deleted")
}

// cmdMove reorders the visible link list by moving one entry to a new
// index, then hands the resulting permutation to the repository.
func (a *App) cmdMove(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: move <from> <to>")
		return
	}
	from, err1 := strconv.Atoi(args[0])
	to, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(a.out, "usage: move <from> <to>")
		return
	}

	visible := a.links.Get(ctx)
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) {
		fmt.Fprintln(a.out, "index out of range")
		return
	}

	ids := make([]string, 0, len(visible))
	for _, l := range visible {
		ids = append(ids, l.ID)
	}
	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)

	a.links.Reorder(ctx, ids)
	fmt.Fprintln(a.out, "reordered")
}

// cmdImport merges a JSON array of links from a file into the local cache
// under the recency tie-break law.
func (a *App) cmdImport(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: import <path>")
		return
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	var incoming []models.Link
	if err := json.Unmarshal(data, &incoming); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	a.links.Merge(ctx, incoming)
	fmt.Fprintf(a.out, "merged %d links\n", len(incoming))
}
