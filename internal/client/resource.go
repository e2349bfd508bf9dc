package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"lexdesk/internal/types"
)

// ResourceSpec declares the path and response keys of one collection.
type ResourceSpec struct {
	Path    string
	ListKey string
	ItemKey string
}

var (
	CaseResource     = ResourceSpec{Path: "/v1/cases", ListKey: "cases", ItemKey: "case"}
	ClientResource   = ResourceSpec{Path: "/v1/clients", ListKey: "clients", ItemKey: "client"}
	DocumentResource = ResourceSpec{Path: "/v1/documents", ListKey: "documents", ItemKey: "document"}
	TaskResource     = ResourceSpec{Path: "/v1/tasks", ListKey: "tasks", ItemKey: "task"}
)

// Resource is the typed CRUD surface for one collection.
type Resource[T types.Entity] struct {
	client *Client
	spec   ResourceSpec
}

func NewResource[T types.Entity](c *Client, spec ResourceSpec) *Resource[T] {
	return &Resource[T]{client: c, spec: spec}
}

func (c *Client) Cases() *Resource[*types.Case] {
	return NewResource[*types.Case](c, CaseResource)
}

func (c *Client) Clients() *Resource[*types.Client] {
	return NewResource[*types.Client](c, ClientResource)
}

func (c *Client) Documents() *Resource[*types.Document] {
	return NewResource[*types.Document](c, DocumentResource)
}

func (c *Client) Tasks() *Resource[*types.Task] {
	return NewResource[*types.Task](c, TaskResource)
}

func (r *Resource[T]) Spec() ResourceSpec {
	return r.spec
}

// List fetches the collection. Filter values meaning "all" are not sent.
func (r *Resource[T]) List(ctx context.Context, filters map[string]string) Envelope[[]T] {
	return r.list(ctx, r.spec.Path+encodeFilters(filters))
}

func (r *Resource[T]) Search(ctx context.Context, query string) Envelope[[]T] {
	return r.list(ctx, r.spec.Path+"/search?q="+url.QueryEscape(strings.TrimSpace(query)))
}

func (r *Resource[T]) Get(ctx context.Context, id string) Envelope[T] {
	path, err := r.itemPath(id)
	if err != nil {
		return fail[T](err)
	}
	return r.item(ctx, http.MethodGet, path, nil)
}

func (r *Resource[T]) Create(ctx context.Context, draft T) Envelope[T] {
	return r.item(ctx, http.MethodPost, r.spec.Path, draft)
}

func (r *Resource[T]) Update(ctx context.Context, id string, patch T) Envelope[T] {
	path, err := r.itemPath(id)
	if err != nil {
		return fail[T](err)
	}
	return r.item(ctx, http.MethodPatch, path, patch)
}

// Delete returns the id the server confirmed.
func (r *Resource[T]) Delete(ctx context.Context, id string) Envelope[string] {
	path, err := r.itemPath(id)
	if err != nil {
		return fail[string](err)
	}
	payload, status, err := r.client.envelope(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fail[string](err)
	}
	deleted := strings.TrimSpace(id)
	if raw, ok := payload["id"]; ok {
		var confirmed string
		if json.Unmarshal(raw, &confirmed) == nil && confirmed != "" {
			deleted = confirmed
		}
	}
	return ok(deleted, status)
}

func (r *Resource[T]) list(ctx context.Context, path string) Envelope[[]T] {
	payload, status, err := r.client.envelope(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fail[[]T](err)
	}
	return ok(decodeList[T](payload[r.spec.ListKey]), status)
}

func (r *Resource[T]) item(ctx context.Context, method, path string, body any) Envelope[T] {
	payload, status, err := r.client.envelope(ctx, method, path, body)
	if err != nil {
		return fail[T](err)
	}
	var item T
	if raw := payload[r.spec.ItemKey]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &item); err != nil {
			return fail[T](fmt.Errorf("decode %s: %w", r.spec.ItemKey, err))
		}
	}
	return ok(item, status)
}

func (r *Resource[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s id is required", r.spec.ItemKey)
	}
	return r.spec.Path + "/" + url.PathEscape(id), nil
}

// decodeList yields an empty, non-nil list for anything that is not a JSON
// array of records.
func decodeList[T types.Entity](raw json.RawMessage) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil || items == nil {
		return []T{}
	}
	return items
}

// envelope performs a JSON call and returns the top-level object. A 2xx
// response with "success": false is reported as an error.
func (c *Client) envelope(ctx context.Context, method, path string, body any) (map[string]json.RawMessage, int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(buf)
	}
	resp, err := c.do(ctx, method, path, reader, "application/json", true)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	payload := map[string]json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: "invalid response: " + err.Error()}
	}
	if raw, ok := payload["success"]; ok {
		var success bool
		if json.Unmarshal(raw, &success) == nil && !success {
			return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: payloadMessage(payload)}
		}
	}
	return payload, resp.StatusCode, nil
}

func payloadMessage(payload map[string]json.RawMessage) string {
	for _, key := range []string{"message", "error"} {
		var msg string
		if json.Unmarshal(payload[key], &msg) == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return "request failed"
}

func encodeFilters(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for key, value := range filters {
		if strings.TrimSpace(key) == "" || types.IsFilterAll(value) {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, key := range keys {
		values.Set(strings.TrimSpace(key), strings.TrimSpace(filters[key]))
	}
	return "?" + values.Encode()
}
