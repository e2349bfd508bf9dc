package server

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"lexdesk/internal/logging"
)

const maxUploadMemory = 8 << 20

func (a *API) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	reader, err := r.MultipartReader()
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "multipart body required")
		return
	}
	in := UploadInput{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		if part.FormName() == "file" {
			// The file part is consumed by the upload itself; fields after it
			// are not read.
			in.FileName = part.FileName()
			in.ContentType = part.Header.Get("Content-Type")
			in.Body = part
			break
		}
		value, err := io.ReadAll(io.LimitReader(part, maxUploadMemory))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		switch part.FormName() {
		case "title":
			in.Title = string(value)
		case "category":
			in.Category = string(value)
		case "case_id":
			in.CaseID = string(value)
		case "uploaded_by":
			in.UploadedBy = string(value)
		}
	}
	if in.Body == nil {
		writeFailure(w, http.StatusBadRequest, "file is required")
		return
	}
	doc, err := a.Services.Files.Upload(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "document", doc)
}

func (a *API) DownloadDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	doc, body, err := a.Services.Files.Open(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer body.Close()
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		a.logger(r).Warn("document_download_interrupted", logging.F("document_id", id), logging.Err(err))
	}
}

func (a *API) logger(r *http.Request) logging.Logger {
	return logging.FromContext(r.Context(), a.Logger)
}
