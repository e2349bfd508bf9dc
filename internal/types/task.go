package types

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty"`
	CaseID      string     `json:"case_id,omitempty"`
	CaseTitle   string     `json:"case_title,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=Pending 'In Progress' Completed"`
	Priority    Priority   `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) EntityID() string {
	if t == nil {
		return ""
	}
	return t.ID
}

func (t *Task) SearchFields() []string {
	if t == nil {
		return nil
	}
	return []string{t.Title, t.CaseTitle, t.Assignee}
}

func (t *Task) FieldValue(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	switch name {
	case "status":
		return string(t.Status), true
	case "priority":
		return string(t.Priority), true
	case "case_id", "case":
		return t.CaseID, true
	case "assignee":
		return t.Assignee, true
	default:
		return "", false
	}
}

func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return &out
}
