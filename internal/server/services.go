package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lexdesk/internal/blob"
	"lexdesk/internal/calendar"
	"lexdesk/internal/logging"
	"lexdesk/internal/store"
	"lexdesk/internal/types"
)

// Services bundles the domain services behind the API. Every write across
// every collection is serialized by one lock so reference checks and
// denormalized fields stay consistent.
type Services struct {
	Cases     *EntityService[*types.Case]
	Clients   *EntityService[*types.Client]
	Documents *EntityService[*types.Document]
	Tasks     *EntityService[*types.Task]
	Files     *DocumentFiles
	Meetings  *MeetingService

	repo    store.Repository
	blobs   blob.Store
	writeMu sync.Mutex
	events  *changeHub
	metrics *Metrics
	logger  logging.Logger
}

type ServiceDeps struct {
	Repo      store.Repository
	Blobs     blob.Store
	Scheduler calendar.Scheduler
	Logger    logging.Logger
	Metrics   *Metrics
	Now       func() time.Time
}

func NewServices(deps ServiceDeps) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	events := newChangeHub()
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = calendar.Unavailable{}
	}
	s := &Services{
		repo:    deps.Repo,
		blobs:   deps.Blobs,
		events:  events,
		metrics: deps.Metrics,
		logger:  logger,
	}
	s.Cases = newEntityService(s, deps.Repo.Cases(), s.caseRules(), now)
	s.Clients = newEntityService(s, deps.Repo.Clients(), s.clientRules(), now)
	s.Documents = newEntityService(s, deps.Repo.Documents(), s.documentRules(), now)
	s.Tasks = newEntityService(s, deps.Repo.Tasks(), s.taskRules(), now)
	s.Files = &DocumentFiles{services: s, blobs: deps.Blobs}
	s.Meetings = &MeetingService{services: s, scheduler: scheduler, logger: logger}
	return s
}

func newEntityService[T types.Entity](s *Services, st store.EntityStore[T], rules entityRules[T], now func() time.Time) *EntityService[T] {
	return &EntityService[T]{
		rules:   rules,
		store:   st,
		writeMu: &s.writeMu,
		events:  s.events,
		metrics: s.metrics,
		logger:  s.logger,
		now:     now,
	}
}

func (s *Services) caseRules() entityRules[*types.Case] {
	return entityRules[*types.Case]{
		schema:   store.CaseSchema,
		singular: "case",
		stamp: func(c *types.Case, id string, created, updated time.Time) {
			c.ID, c.CreatedAt, c.UpdatedAt = id, created, updated
		},
		created: func(c *types.Case) time.Time { return c.CreatedAt },
		normalize: func(c *types.Case) {
			c.Title = strings.TrimSpace(c.Title)
			c.CaseNumber = strings.TrimSpace(c.CaseNumber)
			c.ClientID = strings.TrimSpace(c.ClientID)
			c.AttorneyEmail = strings.ToLower(strings.TrimSpace(c.AttorneyEmail))
			c.Category = strings.TrimSpace(c.Category)
			c.Court = strings.TrimSpace(c.Court)
			if c.Status == "" {
				c.Status = types.CaseStatusActive
			}
			if c.Priority == "" {
				c.Priority = types.PriorityMedium
			}
		},
		merge: func(existing, patch *types.Case) *types.Case {
			existing.Title = trimmed(patch.Title, existing.Title)
			existing.CaseNumber = trimmed(patch.CaseNumber, existing.CaseNumber)
			existing.Description = trimmed(patch.Description, existing.Description)
			existing.ClientID = trimmed(patch.ClientID, existing.ClientID)
			existing.AttorneyEmail = trimmed(patch.AttorneyEmail, existing.AttorneyEmail)
			existing.Category = trimmed(patch.Category, existing.Category)
			existing.Court = trimmed(patch.Court, existing.Court)
			if patch.ClientID == "" {
				existing.ClientName = trimmed(patch.ClientName, existing.ClientName)
			}
			if patch.Status != "" {
				existing.Status = patch.Status
			}
			if patch.Priority != "" {
				existing.Priority = patch.Priority
			}
			if patch.FilingDate != nil {
				filed := *patch.FilingDate
				existing.FilingDate = &filed
			}
			if patch.NextHearing != nil {
				hearing := *patch.NextHearing
				existing.NextHearing = &hearing
			}
			if !patch.Retainer.IsZero() {
				existing.Retainer = patch.Retainer
			}
			return existing
		},
		resolve: func(ctx context.Context, c *types.Case) error {
			if c.ClientID == "" {
				return nil
			}
			client, ok, err := s.repo.Clients().Get(ctx, c.ClientID)
			if err != nil {
				return storeError(err)
			}
			if !ok {
				return invalidError("client not found", nil)
			}
			c.ClientName = client.Name
			return nil
		},
		guardDelete: func(ctx context.Context, id string) error {
			docs, err := s.repo.Documents().List(ctx)
			if err != nil {
				return storeError(err)
			}
			count := 0
			for _, doc := range docs {
				if doc.CaseID == id {
					count++
				}
			}
			if count > 0 {
				return conflictError(fmt.Sprintf("case has %d document(s); delete them first", count), nil)
			}
			return nil
		},
		afterUpdate: func(ctx context.Context, prev, next *types.Case) error {
			if prev.Title == next.Title {
				return nil
			}
			return s.renameCase(ctx, next.ID, next.Title)
		},
		afterDelete: func(ctx context.Context, c *types.Case) {
			if err := s.detachTasks(ctx, c.ID); err != nil {
				logging.FromContext(ctx, s.logger).Warn("detach_tasks_failed", logging.F("case_id", c.ID), logging.Err(err))
			}
		},
	}
}

func (s *Services) clientRules() entityRules[*types.Client] {
	return entityRules[*types.Client]{
		schema:   store.ClientSchema,
		singular: "client",
		stamp: func(c *types.Client, id string, created, updated time.Time) {
			c.ID, c.CreatedAt, c.UpdatedAt = id, created, updated
		},
		created: func(c *types.Client) time.Time { return c.CreatedAt },
		normalize: func(c *types.Client) {
			c.Name = strings.TrimSpace(c.Name)
			c.Email = types.NormalizeEmail(c.Email)
			c.Phone = strings.TrimSpace(c.Phone)
			c.Company = strings.TrimSpace(c.Company)
			c.Address = strings.TrimSpace(c.Address)
			if c.Status == "" {
				c.Status = types.ClientStatusActive
			}
		},
		merge: func(existing, patch *types.Client) *types.Client {
			existing.Name = trimmed(patch.Name, existing.Name)
			existing.Email = trimmed(patch.Email, existing.Email)
			existing.Phone = trimmed(patch.Phone, existing.Phone)
			existing.Company = trimmed(patch.Company, existing.Company)
			existing.Address = trimmed(patch.Address, existing.Address)
			if patch.Status != "" {
				existing.Status = patch.Status
			}
			return existing
		},
		resolve: func(ctx context.Context, c *types.Client) error {
			if c.Email == "" {
				return nil
			}
			clients, err := s.repo.Clients().List(ctx)
			if err != nil {
				return storeError(err)
			}
			for _, other := range clients {
				if other.ID != c.ID && strings.EqualFold(other.Email, c.Email) {
					return conflictError("duplicate email", nil)
				}
			}
			return nil
		},
		guardDelete: func(ctx context.Context, id string) error {
			cases, err := s.repo.Cases().List(ctx)
			if err != nil {
				return storeError(err)
			}
			count := 0
			for _, c := range cases {
				if c.ClientID == id {
					count++
				}
			}
			if count > 0 {
				return conflictError(fmt.Sprintf("client has %d case(s)", count), nil)
			}
			return nil
		},
		afterUpdate: func(ctx context.Context, prev, next *types.Client) error {
			if prev.Name == next.Name {
				return nil
			}
			return s.renameClient(ctx, next.ID, next.Name)
		},
	}
}

func (s *Services) documentRules() entityRules[*types.Document] {
	return entityRules[*types.Document]{
		schema:   store.DocumentSchema,
		singular: "document",
		stamp: func(d *types.Document, id string, created, updated time.Time) {
			d.ID, d.CreatedAt, d.UpdatedAt = id, created, updated
		},
		created: func(d *types.Document) time.Time { return d.CreatedAt },
		normalize: func(d *types.Document) {
			d.Title = strings.TrimSpace(d.Title)
			d.CaseID = strings.TrimSpace(d.CaseID)
			d.Category = strings.TrimSpace(d.Category)
			d.UploadedBy = strings.TrimSpace(d.UploadedBy)
			if d.Title == "" {
				d.Title = strings.TrimSpace(d.FileName)
			}
		},
		untrusted: func(d *types.Document) {
			d.BlobKey, d.FileName, d.ContentType, d.Size = "", "", "", 0
		},
		merge: func(existing, patch *types.Document) *types.Document {
			existing.Title = trimmed(patch.Title, existing.Title)
			existing.Category = trimmed(patch.Category, existing.Category)
			existing.CaseID = trimmed(patch.CaseID, existing.CaseID)
			existing.UploadedBy = trimmed(patch.UploadedBy, existing.UploadedBy)
			return existing
		},
		resolve: func(ctx context.Context, d *types.Document) error {
			if d.CaseID == "" {
				return nil
			}
			c, ok, err := s.repo.Cases().Get(ctx, d.CaseID)
			if err != nil {
				return storeError(err)
			}
			if !ok {
				return invalidError("case not found", nil)
			}
			d.CaseTitle = c.Title
			return nil
		},
		afterDelete: func(ctx context.Context, d *types.Document) {
			if s.blobs == nil || !strings.HasPrefix(d.BlobKey, documentBlobPrefix(d.ID)) {
				return
			}
			if err := s.blobs.Delete(ctx, d.BlobKey); err != nil {
				logging.FromContext(ctx, s.logger).Warn("blob_delete_failed", logging.F("document_id", d.ID), logging.F("key", d.BlobKey), logging.Err(err))
			}
		},
	}
}

func (s *Services) taskRules() entityRules[*types.Task] {
	return entityRules[*types.Task]{
		schema:   store.TaskSchema,
		singular: "task",
		stamp: func(t *types.Task, id string, created, updated time.Time) {
			t.ID, t.CreatedAt, t.UpdatedAt = id, created, updated
		},
		created: func(t *types.Task) time.Time { return t.CreatedAt },
		normalize: func(t *types.Task) {
			t.Title = strings.TrimSpace(t.Title)
			t.CaseID = strings.TrimSpace(t.CaseID)
			t.Assignee = strings.TrimSpace(t.Assignee)
			if t.CaseID == "" {
				t.CaseTitle = ""
			}
			if t.Status == "" {
				t.Status = types.TaskStatusPending
			}
			if t.Priority == "" {
				t.Priority = types.PriorityMedium
			}
		},
		merge: func(existing, patch *types.Task) *types.Task {
			existing.Title = trimmed(patch.Title, existing.Title)
			existing.Description = trimmed(patch.Description, existing.Description)
			existing.CaseID = trimmed(patch.CaseID, existing.CaseID)
			existing.Assignee = trimmed(patch.Assignee, existing.Assignee)
			if patch.Status != "" {
				existing.Status = patch.Status
			}
			if patch.Priority != "" {
				existing.Priority = patch.Priority
			}
			if patch.DueDate != nil {
				due := *patch.DueDate
				existing.DueDate = &due
			}
			return existing
		},
		resolve: func(ctx context.Context, t *types.Task) error {
			if t.CaseID == "" {
				return nil
			}
			c, ok, err := s.repo.Cases().Get(ctx, t.CaseID)
			if err != nil {
				return storeError(err)
			}
			if !ok {
				return invalidError("case not found", nil)
			}
			t.CaseTitle = c.Title
			return nil
		},
	}
}

// renameCase refreshes case_title on the case's documents and tasks.
func (s *Services) renameCase(ctx context.Context, caseID, title string) error {
	docs, err := s.repo.Documents().List(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.CaseID != caseID || doc.CaseTitle == title {
			continue
		}
		doc.CaseTitle = title
		if _, err := s.repo.Documents().Upsert(ctx, doc); err != nil {
			return err
		}
		s.events.Publish(store.DocumentSchema.Name, "update", doc.ID)
	}
	tasks, err := s.repo.Tasks().List(ctx)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.CaseID != caseID || task.CaseTitle == title {
			continue
		}
		task.CaseTitle = title
		if _, err := s.repo.Tasks().Upsert(ctx, task); err != nil {
			return err
		}
		s.events.Publish(store.TaskSchema.Name, "update", task.ID)
	}
	return nil
}

// renameClient refreshes client_name on the client's cases.
func (s *Services) renameClient(ctx context.Context, clientID, name string) error {
	cases, err := s.repo.Cases().List(ctx)
	if err != nil {
		return err
	}
	for _, c := range cases {
		if c.ClientID != clientID || c.ClientName == name {
			continue
		}
		c.ClientName = name
		if _, err := s.repo.Cases().Upsert(ctx, c); err != nil {
			return err
		}
		s.events.Publish(store.CaseSchema.Name, "update", c.ID)
	}
	return nil
}

func (s *Services) detachTasks(ctx context.Context, caseID string) error {
	tasks, err := s.repo.Tasks().List(ctx)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.CaseID != caseID {
			continue
		}
		task.CaseID, task.CaseTitle = "", ""
		if _, err := s.repo.Tasks().Upsert(ctx, task); err != nil {
			return err
		}
		s.events.Publish(store.TaskSchema.Name, "update", task.ID)
	}
	return nil
}
