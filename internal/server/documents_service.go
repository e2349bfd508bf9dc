package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"lexdesk/internal/blob"
	"lexdesk/internal/logging"
	"lexdesk/internal/store"
	"lexdesk/internal/types"
)

const sniffLen = 512

type UploadInput struct {
	FileName    string
	ContentType string
	Title       string
	Category    string
	CaseID      string
	UploadedBy  string
	Body        io.Reader
}

// DocumentFiles pairs document records with their stored payloads.
type DocumentFiles struct {
	services *Services
	blobs    blob.Store
}

func (f *DocumentFiles) Available() bool {
	return f != nil && f.blobs != nil
}

// Upload stores the payload, then creates its record. The payload is removed
// again when the record is rejected.
func (f *DocumentFiles) Upload(ctx context.Context, in UploadInput) (*types.Document, error) {
	if !f.Available() {
		return nil, unavailableError("blob storage unavailable", nil)
	}
	if strings.TrimSpace(in.FileName) == "" || in.Body == nil {
		return nil, invalidError("file is required", nil)
	}
	caseID := strings.TrimSpace(in.CaseID)
	if caseID == "" {
		return nil, invalidError("case_id is required", nil)
	}
	if _, ok, err := f.services.repo.Cases().Get(ctx, caseID); err != nil {
		return nil, storeError(err)
	} else if !ok {
		return nil, invalidError("case not found", nil)
	}

	id, err := store.DocumentSchema.NewID()
	if err != nil {
		return nil, unavailableError("id generation failed", err)
	}
	body := bufio.NewReaderSize(in.Body, sniffLen)
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := body.Peek(sniffLen)
		contentType = http.DetectContentType(head)
	}
	name := storedFileName(in.FileName, contentType)
	key := documentBlobPrefix(id) + name
	info, err := f.blobs.Put(ctx, key, body, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"document_id": id, "case_id": caseID},
	})
	if err != nil {
		return nil, unavailableError("blob write failed", err)
	}
	f.services.metrics.recordBlob("in", info.Size)

	doc, err := f.services.Documents.create(ctx, &types.Document{
		ID:          id,
		Title:       in.Title,
		FileName:    name,
		ContentType: contentType,
		Size:        info.Size,
		Category:    in.Category,
		CaseID:      caseID,
		UploadedBy:  in.UploadedBy,
		BlobKey:     key,
	}, true)
	if err != nil {
		if delErr := f.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logging.FromContext(ctx, f.services.logger).Warn("blob_cleanup_failed", logging.F("key", key), logging.Err(delErr))
		}
		return nil, err
	}
	return doc, nil
}

// Open returns the record and a reader over its payload. The caller closes
// the reader.
func (f *DocumentFiles) Open(ctx context.Context, id string) (*types.Document, io.ReadCloser, error) {
	if !f.Available() {
		return nil, nil, unavailableError("blob storage unavailable", nil)
	}
	doc, err := f.services.Documents.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.BlobKey == "" {
		return nil, nil, notFoundError("document has no file", nil)
	}
	info, rc, err := f.blobs.Get(ctx, doc.BlobKey)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, notFoundError("document file not found", err)
	}
	if err != nil {
		return nil, nil, unavailableError("blob read failed", err)
	}
	if doc.ContentType == "" {
		doc.ContentType = info.ContentType
	}
	return doc, &countingReader{rc: rc, done: func(n int64) { f.services.metrics.recordBlob("out", n) }}, nil
}

// documentBlobPrefix is the key prefix under which a document's payload is
// stored. Deletes never reach outside it.
func documentBlobPrefix(id string) string {
	return "documents/" + id + "/"
}

type countingReader struct {
	rc   io.ReadCloser
	n    int64
	once sync.Once
	done func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) Close() error {
	c.once.Do(func() { c.done(c.n) })
	return c.rc.Close()
}

const fallbackFileStem = "document"

// cleanFileName keeps the base name's letters and digits in any script,
// plus '.', '-' and '_'. Spaces become '_' and everything else is dropped.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// storedFileName is the cleaned name, or "document" plus an extension when
// nothing usable survives before the extension. The extension comes from
// the name or else from the content type.
func storedFileName(raw, contentType string) string {
	name := cleanFileName(raw)
	ext := filepath.Ext(name)
	if strings.Trim(strings.TrimSuffix(name, ext), "._-") != "" {
		return strings.Trim(name, ".")
	}
	if ext == "" || ext == "." {
		ext = extensionFor(contentType)
	}
	return fallbackFileStem + ext
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}
