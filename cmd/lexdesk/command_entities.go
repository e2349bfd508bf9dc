package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

// EntityCommand drives one collection through a session repository, the same
// path the dashboard uses.
type EntityCommand[T types.Entity] struct {
	name      string
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	gateway   func(commandClient) state.Gateway[T]
	newDraft  func() T
	header    string
	row       func(T) []any
}

func (c *EntityCommand[T]) Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s requires a subcommand: list|get|search|create|update|delete", c.name)
	}
	sub, rest := args[0], args[1:]
	fs := flag.NewFlagSet(c.name+" "+sub, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	var filters stringList
	var data, file *string
	switch sub {
	case "list":
		fs.Var(&filters, "filter", "filter key=value (repeatable)")
	case "create", "update":
		data = fs.String("data", "", "record as JSON")
		file = fs.String("file", "", "read the JSON record from a file")
	case "get", "search", "delete":
	default:
		return fmt.Errorf("unknown %s subcommand: %s", c.name, sub)
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureServer(ctx); err != nil {
		return err
	}
	repo := state.NewRepository[T](c.name, c.gateway(client))

	switch sub {
	case "list":
		parsed, err := parseFilters(filters)
		if err != nil {
			return err
		}
		out := repo.FetchAll(ctx, parsed)
		if err := outcomeErr(out); err != nil {
			return err
		}
		return c.printItems(out.Items, *asJSON)
	case "search":
		query := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if query == "" {
			return errors.New("search query is required")
		}
		out := repo.Search(ctx, query)
		if err := outcomeErr(out); err != nil {
			return err
		}
		return c.printItems(out.Items, *asJSON)
	case "get":
		id, err := requireArg(fs.Args(), "id")
		if err != nil {
			return err
		}
		out := repo.FetchByID(ctx, id)
		if err := outcomeErr(out); err != nil {
			return err
		}
		return c.printItem(out.Item, *asJSON)
	case "create":
		draft, err := c.readDraft(*data, *file)
		if err != nil {
			return err
		}
		if err := types.Validate(draft); err != nil {
			return err
		}
		out := repo.Create(ctx, draft)
		if err := outcomeErr(out); err != nil {
			return err
		}
		return c.printItem(out.Item, *asJSON)
	case "update":
		id, err := requireArg(fs.Args(), "id")
		if err != nil {
			return err
		}
		patch, err := c.readDraft(*data, *file)
		if err != nil {
			return err
		}
		out := repo.Update(ctx, id, patch)
		if err := outcomeErr(out); err != nil {
			return err
		}
		return c.printItem(out.Item, *asJSON)
	default:
		id, err := requireArg(fs.Args(), "id")
		if err != nil {
			return err
		}
		if err := outcomeErr(repo.Delete(ctx, id)); err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(c.stdout, map[string]string{"id": id})
		}
		fmt.Fprintln(c.stdout, "deleted", id)
		return nil
	}
}

func (c *EntityCommand[T]) readDraft(data, file string) (T, error) {
	draft := c.newDraft()
	raw := []byte(strings.TrimSpace(data))
	if file != "" {
		if len(raw) > 0 {
			return draft, errors.New("use either --data or --file")
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return draft, err
		}
		raw = content
	}
	if len(raw) == 0 {
		return draft, errors.New("record is required: pass --data or --file")
	}
	if err := json.Unmarshal(raw, draft); err != nil {
		return draft, fmt.Errorf("decode record: %w", err)
	}
	return draft, nil
}

func (c *EntityCommand[T]) printItems(items []T, asJSON bool) error {
	if asJSON {
		return writeJSON(c.stdout, items)
	}
	writer := tabwriter.NewWriter(c.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, c.header)
	for _, item := range items {
		c.writeRow(writer, item)
	}
	return writer.Flush()
}

func (c *EntityCommand[T]) printItem(item T, asJSON bool) error {
	if item.EntityID() == "" {
		return errors.New("server returned no record")
	}
	if asJSON || c.row == nil {
		return writeJSON(c.stdout, item)
	}
	return c.printItems([]T{item}, false)
}

func (c *EntityCommand[T]) writeRow(w io.Writer, item T) {
	cells := c.row(item)
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprint(cell)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func outcomeErr[T types.Entity](out state.Outcome[T]) error {
	if out.Fulfilled() {
		return nil
	}
	if out.Err != "" {
		return errors.New(out.Err)
	}
	return fmt.Errorf("%s %s", out.Op, out.Phase)
}
