package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"lexdesk/internal/types"
)

// UploadDocument sends a multipart document upload. The body is produced through a
// pipe so the file is never held in memory.
func (c *Client) UploadDocument(ctx context.Context, req UploadRequest) Envelope[*types.Document] {
	if req.Content == nil {
		return fail[*types.Document](errors.New("file content is required"))
	}
	if strings.TrimSpace(req.FileName) == "" {
		return fail[*types.Document](errors.New("file name is required"))
	}
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(form, req))
	}()

	resp, err := c.do(ctx, http.MethodPost, DocumentResource.Path+"/upload", pr, form.FormDataContentType(), true)
	_ = pr.Close()
	if err != nil {
		return fail[*types.Document](err)
	}
	defer resp.Body.Close()
	var payload struct {
		Document *types.Document `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fail[*types.Document](fmt.Errorf("decode document: %w", err))
	}
	return ok(payload.Document, resp.StatusCode)
}

func writeUploadForm(form *multipart.Writer, req UploadRequest) error {
	fields := []struct{ name, value string }{
		{"title", req.Title},
		{"category", req.Category},
		{"case_id", req.CaseID},
		{"uploaded_by", req.UploadedBy},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		if err := form.WriteField(field.name, field.value); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", req.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return err
	}
	return form.Close()
}

// DownloadDocument streams the payload of document id into w.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) Envelope[DownloadInfo] {
	id = strings.TrimSpace(id)
	if id == "" {
		return fail[DownloadInfo](errors.New("document id is required"))
	}
	if w == nil {
		return fail[DownloadInfo](errors.New("writer is required"))
	}
	resp, err := c.do(ctx, http.MethodGet, DocumentResource.Path+"/"+url.PathEscape(id)+"/download", nil, "", true)
	if err != nil {
		return fail[DownloadInfo](err)
	}
	defer resp.Body.Close()
	info := DownloadInfo{ContentType: resp.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		info.FileName = params["filename"]
	}
	n, err := io.Copy(w, resp.Body)
	info.Bytes = n
	if err != nil {
		return fail[DownloadInfo](fmt.Errorf("download %s: %w", id, err))
	}
	return ok(info, resp.StatusCode)
}
