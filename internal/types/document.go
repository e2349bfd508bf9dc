package types

import "time"

type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size_bytes"`
	Category    string    `json:"category,omitempty"`
	CaseID      string    `json:"case_id" validate:"required"`
	CaseTitle   string    `json:"case_title,omitempty"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	BlobKey     string    `json:"blob_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Document) EntityID() string {
	if d == nil {
		return ""
	}
	return d.ID
}

func (d *Document) SearchFields() []string {
	if d == nil {
		return nil
	}
	return []string{d.Title, d.FileName, d.CaseTitle}
}

func (d *Document) FieldValue(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	switch name {
	case "category":
		return d.Category, true
	case "case_id", "case":
		return d.CaseID, true
	case "uploaded_by":
		return d.UploadedBy, true
	default:
		return "", false
	}
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
