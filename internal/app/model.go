package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeFilterText
	modeServerSearch
)

const (
	minDetailHeight = 6
	chromeHeight    = 6
)

type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	store   *state.Store
	dash    *dashboard
	feed    ChangeFeed
	profile types.Profile
	refresh time.Duration

	active  int
	cursors []int
	width   int
	height  int

	spinner spinner.Model
	input   textinput.Model
	mode    inputMode

	confirmID  string
	scopeReady bool
	feedCancel func()
	events     <-chan types.ChangeEvent

	toast toast
	now   func() time.Time
}

func NewModel(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	input := textinput.New()
	input.Prompt = "/ "
	input.CharLimit = 120
	dash := newDashboard(opts.Store, opts.Profile)
	return &Model{
		ctx:        ctx,
		cancel:     cancel,
		store:      opts.Store,
		dash:       dash,
		feed:       opts.Feed,
		profile:    opts.Profile,
		refresh:    opts.Refresh,
		cursors:    make([]int, len(dash.panes)),
		width:      100,
		height:     30,
		spinner:    sp,
		input:      input,
		scopeReady: dash.role != types.RoleClient,
		now:        time.Now,
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.startFeedCmd(), refreshTickCmd(m.refresh), toastTickCmd()}
	if m.scopeReady {
		cmds = append(cmds, m.refreshAllCmd())
	} else {
		cmds = append(cmds, m.resolveClientCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case clientScopeMsg:
		if msg.err != "" {
			m.showErrorToast(msg.err)
			return m, nil
		}
		m.dash.setClientScope(msg.clientID)
		m.scopeReady = true
		return m, m.refreshAllCmd()
	case opDoneMsg:
		return m, m.handleOpDone(msg)
	case feedStartedMsg:
		if msg.err != nil {
			m.showWarningToast("live updates unavailable: " + msg.err.Error())
			return m, nil
		}
		m.feedCancel = msg.cancel
		m.events = msg.events
		return m, waitForChange(msg.events)
	case changeMsg:
		return m, m.handleChange(msg.event)
	case feedClosedMsg:
		m.events = nil
		m.feedCancel = nil
		return m, nil
	case refreshTickMsg:
		if !m.scopeReady {
			return m, refreshTickCmd(m.refresh)
		}
		return m, tea.Batch(m.refreshAllCmd(), refreshTickCmd(m.refresh))
	case toastTickMsg:
		if m.toast.text != "" && !m.toast.visible(m.now()) {
			m.toast = toast{}
		}
		return m, toastTickCmd()
	}
	return m, nil
}

func (m *Model) handleOpDone(msg opDoneMsg) tea.Cmd {
	if msg.pane == m.store.Cases.Name() && msg.phase == state.PhaseFulfilled {
		m.dash.setOwnCases(m.store.Cases.Items())
	}
	switch {
	case msg.op == state.OpDelete && msg.phase == state.PhaseFulfilled:
		m.showInfoToast("deleted " + msg.id)
	case msg.op == state.OpSearch && msg.phase == state.PhaseFulfilled:
		if p, _ := m.dash.pane(msg.pane); p != nil {
			m.showInfoToast(fmt.Sprintf("%d match(es)", len(p.Rows())))
		}
	}
	m.surfaceErrors()
	m.clampCursor()
	return nil
}

// handleChange refetches the collection a server write touched. Edits to a
// client or case ripple into the denormalized names on other collections.
func (m *Model) handleChange(ev types.ChangeEvent) tea.Cmd {
	var cmds []tea.Cmd
	if m.events != nil {
		cmds = append(cmds, waitForChange(m.events))
	}
	if !m.scopeReady {
		return tea.Batch(cmds...)
	}
	touched := []string{ev.Collection}
	switch ev.Collection {
	case "clients":
		touched = append(touched, "cases")
	case "cases":
		touched = append(touched, "documents", "tasks")
	}
	for _, name := range touched {
		if p, _ := m.dash.pane(name); p != nil {
			cmds = append(cmds, m.fetchAllCmd(p))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal {
		return m, m.handleInputKey(msg)
	}
	key := msg.String()
	if m.confirmID != "" {
		id := m.confirmID
		m.confirmID = ""
		if key == "y" {
			p := m.activePane()
			return m, m.opCmd(p, state.OpDelete, id, func(ctx context.Context) state.Phase { return p.Delete(ctx, id) })
		}
		m.showInfoToast("delete canceled")
		return m, nil
	}
	p := m.activePane()
	switch key {
	case "ctrl+c", "q":
		m.shutdown()
		return m, tea.Quit
	case "tab", "right", "l":
		m.switchPane(1)
	case "shift+tab", "left", "h":
		m.switchPane(-1)
	case "down", "j":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-1)
	case "home", "g":
		m.setCursor(0)
	case "end", "G":
		m.setCursor(len(p.Rows()) - 1)
	case "enter":
		if id := m.cursorID(); id != "" {
			p.Select(id)
			return m, m.opCmd(p, state.OpFetchByID, id, func(ctx context.Context) state.Phase { return p.FetchByID(ctx, id) })
		}
	case "esc":
		p.Select("")
	case "/":
		m.beginInput(modeFilterText, "/ ", p.SearchTerm())
		return m, textinput.Blink
	case "s":
		m.beginInput(modeServerSearch, "search> ", "")
		return m, textinput.Blink
	case "f":
		m.cycleFilter(p)
	case "x":
		p.ResetFilters()
		m.setCursor(0)
		m.showInfoToast("filters cleared")
		return m, m.fetchAllCmd(p)
	case "r":
		return m, m.fetchAllCmd(p)
	case "R":
		return m, m.refreshAllCmd()
	case "d":
		if !m.dash.canDelete() {
			m.showWarningToast("delete requires the attorney role")
			return m, nil
		}
		if id := m.cursorID(); id != "" {
			m.confirmID = id
		}
	case "y":
		if id := m.cursorID(); id != "" {
			via, err := copyText(id)
			switch {
			case err != nil:
				m.showErrorToast("copy failed: " + err.Error())
			case via == copiedViaTerminal:
				m.showInfoToast("copied " + id + " via terminal")
			default:
				m.showInfoToast("copied " + id)
			}
		}
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	p := m.activePane()
	switch msg.String() {
	case "esc":
		if m.mode == modeFilterText {
			p.SetSearchTerm("")
		}
		m.endInput()
		return nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.endInput()
		if mode == modeServerSearch {
			if value == "" {
				return m.fetchAllCmd(p)
			}
			return m.opCmd(p, state.OpSearch, "", func(ctx context.Context) state.Phase { return p.Search(ctx, value) })
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilterText {
		p.SetSearchTerm(m.input.Value())
		m.clampCursor()
	}
	return cmd
}

func (m *Model) beginInput(mode inputMode, prompt, value string) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
}

// cycleFilter steps the pane's filter through its values and back to all.
func (m *Model) cycleFilter(p pane) {
	field, values := p.FilterField()
	if field == "" || len(values) == 0 {
		return
	}
	current := p.Filters()[field]
	next := values[0]
	for i, v := range values {
		if v == current {
			if i+1 < len(values) {
				next = values[i+1]
			} else {
				next = types.FilterAll
			}
			break
		}
	}
	p.SetFilters(map[string]string{field: next})
	m.setCursor(0)
}

func (m *Model) activePane() pane {
	return m.dash.panes[m.active]
}

func (m *Model) switchPane(delta int) {
	n := len(m.dash.panes)
	m.active = (m.active + delta + n) % n
	m.clampCursor()
}

func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursors[m.active] + delta)
}

func (m *Model) setCursor(pos int) {
	n := len(m.activePane().Rows())
	if pos >= n {
		pos = n - 1
	}
	if pos < 0 {
		pos = 0
	}
	m.cursors[m.active] = pos
}

func (m *Model) clampCursor() {
	m.setCursor(m.cursors[m.active])
}

func (m *Model) cursorID() string {
	rows := m.activePane().Rows()
	pos := m.cursors[m.active]
	if pos < 0 || pos >= len(rows) {
		return ""
	}
	return rows[pos].id
}

func (m *Model) shutdown() {
	if m.feedCancel != nil {
		m.feedCancel()
		m.feedCancel = nil
	}
	m.cancel()
}
