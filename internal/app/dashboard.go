package app

import (
	"fmt"
	"strings"
	"sync"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

// dashboard holds the panes one role may see, in tab order.
type dashboard struct {
	role  types.Role
	panes []pane

	scopeMu  sync.RWMutex
	clientID string
	caseIDs  map[string]struct{}
}

func newDashboard(store *state.Store, profile types.Profile) *dashboard {
	d := &dashboard{role: profile.Role, caseIDs: map[string]struct{}{}}
	if d.role == "" {
		d.role = types.RoleAttorney
	}
	cases := casePane(store.Cases)
	clients := clientPane(store.Clients)
	documents := documentPane(store.Documents)
	tasks := taskPane(store.Tasks)

	switch d.role {
	case types.RoleClient:
		cases.baseFilters = d.clientCaseFilters
		cases.scope = func(c *types.Case) bool { return d.ownsClient(c.ClientID) }
		documents.scope = func(doc *types.Document) bool { return d.ownsCase(doc.CaseID) }
		d.panes = []pane{cases, documents}
	case types.RoleAssistant:
		d.panes = []pane{cases, documents, tasks}
	default:
		d.panes = []pane{cases, clients, documents, tasks}
	}
	return d
}

// setClientScope records which client the signed-in user is. Until it is
// set, a client-role dashboard shows nothing.
func (d *dashboard) setClientScope(clientID string) {
	d.scopeMu.Lock()
	d.clientID = clientID
	d.scopeMu.Unlock()
}

func (d *dashboard) setOwnCases(cases []*types.Case) {
	ids := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		if c != nil && d.ownsClient(c.ClientID) {
			ids[c.ID] = struct{}{}
		}
	}
	d.scopeMu.Lock()
	d.caseIDs = ids
	d.scopeMu.Unlock()
}

func (d *dashboard) ownsClient(clientID string) bool {
	d.scopeMu.RLock()
	defer d.scopeMu.RUnlock()
	return d.clientID != "" && clientID == d.clientID
}

func (d *dashboard) ownsCase(caseID string) bool {
	d.scopeMu.RLock()
	defer d.scopeMu.RUnlock()
	_, ok := d.caseIDs[caseID]
	return ok
}

func (d *dashboard) clientCaseFilters() map[string]string {
	d.scopeMu.RLock()
	defer d.scopeMu.RUnlock()
	if d.clientID == "" {
		return nil
	}
	return map[string]string{"client_id": d.clientID}
}

func (d *dashboard) pane(name string) (pane, int) {
	for i, p := range d.panes {
		if p.Name() == name {
			return p, i
		}
	}
	return nil, -1
}

func (d *dashboard) canDelete() bool {
	return d.role == types.RoleAttorney
}

func casePane(repo *state.Repository[*types.Case]) *repoPane[*types.Case] {
	return &repoPane[*types.Case]{
		repo: repo,
		columns: []column[*types.Case]{
			{title: "NUMBER", width: 10, value: func(c *types.Case) string { return orDash(c.CaseNumber) }},
			{title: "TITLE", width: 28, value: func(c *types.Case) string { return c.Title }},
			{title: "CLIENT", width: 18, value: func(c *types.Case) string { return orDash(c.ClientName) }},
			{title: "STATUS", width: 8, value: func(c *types.Case) string { return string(c.Status) }},
			{title: "PRIORITY", width: 8, value: func(c *types.Case) string { return string(c.Priority) }},
			{title: "HEARING", width: 10, value: func(c *types.Case) string { return formatDay(c.NextHearing) }},
		},
		detail:      caseDetail,
		filterField: "status",
		filterVals:  []string{string(types.CaseStatusActive), string(types.CaseStatusPending), string(types.CaseStatusClosed)},
	}
}

func clientPane(repo *state.Repository[*types.Client]) *repoPane[*types.Client] {
	return &repoPane[*types.Client]{
		repo: repo,
		columns: []column[*types.Client]{
			{title: "NAME", width: 22, value: func(c *types.Client) string { return c.Name }},
			{title: "EMAIL", width: 26, value: func(c *types.Client) string { return c.Email }},
			{title: "COMPANY", width: 18, value: func(c *types.Client) string { return orDash(c.Company) }},
			{title: "STATUS", width: 8, value: func(c *types.Client) string { return string(c.Status) }},
		},
		detail: func(c *types.Client) string {
			return fmt.Sprintf("## %s\n\n- Email: %s\n- Phone: %s\n- Company: %s\n- Address: %s\n",
				escapeMarkdown(c.Name), c.Email, orDash(c.Phone), orDash(escapeMarkdown(c.Company)), orDash(escapeMarkdown(c.Address)))
		},
		filterField: "status",
		filterVals:  []string{string(types.ClientStatusActive), string(types.ClientStatusInactive)},
	}
}

func documentPane(repo *state.Repository[*types.Document]) *repoPane[*types.Document] {
	return &repoPane[*types.Document]{
		repo: repo,
		columns: []column[*types.Document]{
			{title: "TITLE", width: 26, value: func(d *types.Document) string { return d.Title }},
			{title: "FILE", width: 20, value: func(d *types.Document) string { return orDash(d.FileName) }},
			{title: "CASE", width: 22, value: func(d *types.Document) string { return orDash(d.CaseTitle) }},
			{title: "CATEGORY", width: 12, value: func(d *types.Document) string { return orDash(d.Category) }},
			{title: "SIZE", width: 8, value: func(d *types.Document) string { return formatBytes(d.Size) }},
		},
		detail: func(d *types.Document) string {
			return fmt.Sprintf("## %s\n\n- File: `%s` (%s)\n- Case: %s\n- Uploaded by: %s\n- Id: `%s`\n",
				escapeMarkdown(d.Title), d.FileName, formatBytes(d.Size), orDash(escapeMarkdown(d.CaseTitle)), orDash(d.UploadedBy), d.ID)
		},
		filterField: "category",
		filterVals:  []string{"pleading", "contract", "evidence", "correspondence"},
	}
}

func taskPane(repo *state.Repository[*types.Task]) *repoPane[*types.Task] {
	return &repoPane[*types.Task]{
		repo: repo,
		columns: []column[*types.Task]{
			{title: "TITLE", width: 28, value: func(t *types.Task) string { return t.Title }},
			{title: "CASE", width: 22, value: func(t *types.Task) string { return orDash(t.CaseTitle) }},
			{title: "ASSIGNEE", width: 18, value: func(t *types.Task) string { return orDash(t.Assignee) }},
			{title: "STATUS", width: 11, value: func(t *types.Task) string { return string(t.Status) }},
			{title: "DUE", width: 10, value: func(t *types.Task) string { return formatDay(t.DueDate) }},
		},
		detail: func(t *types.Task) string {
			out := fmt.Sprintf("## %s\n\n- Case: %s\n- Assignee: %s\n- Status: %s\n- Priority: %s\n- Due: %s\n",
				escapeMarkdown(t.Title), orDash(escapeMarkdown(t.CaseTitle)), orDash(t.Assignee), t.Status, t.Priority, formatDay(t.DueDate))
			if desc := strings.TrimSpace(t.Description); desc != "" {
				out += "\n" + desc + "\n"
			}
			return out
		},
		filterField: "status",
		filterVals:  []string{string(types.TaskStatusPending), string(types.TaskStatusInProgress), string(types.TaskStatusCompleted)},
	}
}

// caseDetail renders the description as markdown; attorneys write it that way.
func caseDetail(c *types.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(c.Title))
	fmt.Fprintf(&b, "- Number: %s\n- Client: %s\n- Status: %s / %s\n", orDash(c.CaseNumber), orDash(escapeMarkdown(c.ClientName)), c.Status, c.Priority)
	if c.Court != "" {
		fmt.Fprintf(&b, "- Court: %s\n", escapeMarkdown(c.Court))
	}
	fmt.Fprintf(&b, "- Filed: %s\n- Next hearing: %s\n", formatDay(c.FilingDate), formatDay(c.NextHearing))
	if !c.Retainer.IsZero() {
		fmt.Fprintf(&b, "- Retainer: %s\n", c.Retainer.StringFixed(2))
	}
	if desc := strings.TrimSpace(c.Description); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}
	return b.String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
