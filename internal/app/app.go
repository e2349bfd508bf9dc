// Package app is the terminal dashboard over the shared entity store.
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

// ChangeFeed streams committed writes from the server.
type ChangeFeed interface {
	ChangeStream(ctx context.Context) (<-chan types.ChangeEvent, func(), error)
}

type Options struct {
	Store   *state.Store
	Feed    ChangeFeed
	Profile types.Profile
	// Refresh re-fetches every pane on this interval; zero relies on the feed.
	Refresh time.Duration
}

func Run(opts Options) error {
	model := NewModel(opts)
	defer model.shutdown()
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
