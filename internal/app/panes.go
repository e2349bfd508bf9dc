package app

import (
	"context"
	"strings"
	"time"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

type column[T types.Entity] struct {
	title string
	width int
	value func(T) string
}

// pane adapts one repository to the table view.
type pane interface {
	Name() string
	Titles() []string
	Widths() []int
	Rows() []row
	Status() state.Status
	LastError() string
	ClearError()
	Total() int
	InFlight() int
	SearchTerm() string
	SetSearchTerm(term string)
	Filters() map[string]string
	SetFilters(partial map[string]string)
	ResetFilters()
	Select(id string)
	SelectedID() string
	Detail() (string, bool)
	FilterField() (string, []string)

	FetchAll(ctx context.Context) state.Phase
	Search(ctx context.Context, query string) state.Phase
	FetchByID(ctx context.Context, id string) state.Phase
	Delete(ctx context.Context, id string) state.Phase
}

type row struct {
	id    string
	cells []string
}

type repoPane[T types.Entity] struct {
	repo    *state.Repository[T]
	columns []column[T]
	detail  func(T) string
	// scope hides records outside the user's reach; nil keeps everything.
	scope func(T) bool
	// baseFilters are sent with every fetchAll and survive ResetFilters.
	baseFilters func() map[string]string
	filterField string
	filterVals  []string
}

func (p *repoPane[T]) Name() string { return p.repo.Name() }

func (p *repoPane[T]) Titles() []string {
	out := make([]string, len(p.columns))
	for i, c := range p.columns {
		out[i] = c.title
	}
	return out
}

func (p *repoPane[T]) Widths() []int {
	out := make([]int, len(p.columns))
	for i, c := range p.columns {
		out[i] = c.width
	}
	return out
}

func (p *repoPane[T]) Rows() []row {
	items := p.repo.Filtered()
	rows := make([]row, 0, len(items))
	for _, item := range items {
		if p.scope != nil && !p.scope(item) {
			continue
		}
		cells := make([]string, len(p.columns))
		for i, c := range p.columns {
			cells[i] = c.value(item)
		}
		rows = append(rows, row{id: item.EntityID(), cells: cells})
	}
	return rows
}

func (p *repoPane[T]) Status() state.Status       { return p.repo.Status() }
func (p *repoPane[T]) LastError() string          { return p.repo.LastError() }
func (p *repoPane[T]) ClearError()                { p.repo.ClearError() }
func (p *repoPane[T]) Total() int                 { return p.repo.TotalCount() }
func (p *repoPane[T]) InFlight() int              { return p.repo.InFlight() }
func (p *repoPane[T]) SearchTerm() string         { return p.repo.SearchTerm() }
func (p *repoPane[T]) SetSearchTerm(term string)  { p.repo.SetSearchTerm(term) }
func (p *repoPane[T]) Filters() map[string]string { return p.repo.Filters() }
func (p *repoPane[T]) SetFilters(partial map[string]string) {
	p.repo.SetFilters(partial)
}
func (p *repoPane[T]) ResetFilters()      { p.repo.ResetFilters() }
func (p *repoPane[T]) Select(id string)   { p.repo.Select(id) }
func (p *repoPane[T]) SelectedID() string { return p.repo.SelectedID() }

func (p *repoPane[T]) FilterField() (string, []string) {
	return p.filterField, p.filterVals
}

func (p *repoPane[T]) Detail() (string, bool) {
	item, ok := p.repo.Selected()
	if !ok || p.detail == nil {
		return "", false
	}
	if p.scope != nil && !p.scope(item) {
		return "", false
	}
	return p.detail(item), true
}

func (p *repoPane[T]) fetchFilters() map[string]string {
	if p.baseFilters == nil {
		return nil
	}
	return p.baseFilters()
}

func (p *repoPane[T]) FetchAll(ctx context.Context) state.Phase {
	return p.repo.FetchAll(ctx, p.fetchFilters()).Phase
}

func (p *repoPane[T]) Search(ctx context.Context, query string) state.Phase {
	return p.repo.Search(ctx, query).Phase
}

func (p *repoPane[T]) FetchByID(ctx context.Context, id string) state.Phase {
	return p.repo.FetchByID(ctx, id).Phase
}

func (p *repoPane[T]) Delete(ctx context.Context, id string) state.Phase {
	return p.repo.Delete(ctx, id).Phase
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
