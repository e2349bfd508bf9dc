package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

const opTimeout = 15 * time.Second

// opDoneMsg reports that a dispatched operation settled. The repository
// already holds the result.
type opDoneMsg struct {
	pane  string
	op    state.Op
	phase state.Phase
	id    string
}

type clientScopeMsg struct {
	clientID string
	err      string
}

type changeMsg struct {
	event types.ChangeEvent
}

type feedStartedMsg struct {
	events <-chan types.ChangeEvent
	cancel func()
	err    error
}

type feedClosedMsg struct{}

type refreshTickMsg time.Time

type toastTickMsg time.Time

func (m *Model) opCmd(p pane, op state.Op, id string, run func(context.Context) state.Phase) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		return opDoneMsg{pane: p.Name(), op: op, phase: run(ctx), id: id}
	}
}

func (m *Model) fetchAllCmd(p pane) tea.Cmd {
	return m.opCmd(p, state.OpFetchAll, "", p.FetchAll)
}

func (m *Model) refreshAllCmd() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.dash.panes))
	for _, p := range m.dash.panes {
		cmds = append(cmds, m.fetchAllCmd(p))
	}
	return tea.Batch(cmds...)
}

// resolveClientCmd finds the client record matching the signed-in email.
func (m *Model) resolveClientCmd() tea.Cmd {
	ctx := m.ctx
	repo := m.store.Clients
	email := types.NormalizeEmail(m.profile.Email)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		out := repo.FetchAll(ctx, map[string]string{"email": email})
		if !out.Fulfilled() {
			return clientScopeMsg{err: out.Err}
		}
		for _, c := range out.Items {
			if c != nil && strings.EqualFold(c.Email, email) {
				return clientScopeMsg{clientID: c.ID}
			}
		}
		return clientScopeMsg{err: "no client record for " + email}
	}
}

func (m *Model) startFeedCmd() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	ctx := m.ctx
	feed := m.feed
	return func() tea.Msg {
		events, cancel, err := feed.ChangeStream(ctx)
		return feedStartedMsg{events: events, cancel: cancel, err: err}
	}
}

func waitForChange(events <-chan types.ChangeEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return feedClosedMsg{}
		}
		return changeMsg{event: ev}
	}
}

func refreshTickCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

func toastTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return toastTickMsg(t) })
}
