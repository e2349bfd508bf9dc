package server

import (
	"net/http"

	"lexdesk/internal/store"
)

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	a.cases = newEntityRoutes(a.Services.Cases, store.CaseSchema, "case")
	a.clients = newEntityRoutes(a.Services.Clients, store.ClientSchema, "client")
	a.documents = newEntityRoutes(a.Services.Documents, store.DocumentSchema, "document")
	a.tasks = newEntityRoutes(a.Services.Tasks, store.TaskSchema, "task")
	a.documents.sub["download"] = a.DownloadDocument

	mux.HandleFunc("/health", a.Health)
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/v1/cases", a.cases.Collection)
	mux.HandleFunc("/v1/cases/", a.cases.ByID)
	mux.HandleFunc("/v1/cases/export", a.ExportCases)
	mux.HandleFunc("/v1/clients", a.clients.Collection)
	mux.HandleFunc("/v1/clients/", a.clients.ByID)
	mux.HandleFunc("/v1/documents", a.documents.Collection)
	mux.HandleFunc("/v1/documents/", a.documents.ByID)
	mux.HandleFunc("/v1/documents/upload", a.UploadDocument)
	mux.HandleFunc("/v1/tasks", a.tasks.Collection)
	mux.HandleFunc("/v1/tasks/", a.tasks.ByID)
	mux.HandleFunc("/v1/meetings", a.CreateMeeting)
	mux.HandleFunc("/v1/meetings/status", a.MeetingStatus)
	mux.HandleFunc("/v1/events", a.Events)
	mux.HandleFunc("/v1/shutdown", a.ShutdownServer)
}
