package server

import (
	"net/http"

	"lexdesk/internal/store"
	"lexdesk/internal/types"
)

// entityRoutes serves the REST surface of one collection.
type entityRoutes[T types.Entity] struct {
	prefix  string
	itemKey string
	newItem func() T
	service *EntityService[T]
	// sub handles /<prefix>/<id>/<name> routes.
	sub map[string]func(w http.ResponseWriter, r *http.Request, id string)
}

func newEntityRoutes[T types.Entity](service *EntityService[T], schema store.Schema[T], itemKey string) *entityRoutes[T] {
	return &entityRoutes[T]{
		prefix:  "/v1/" + schema.Name + "/",
		itemKey: itemKey,
		newItem: schema.New,
		service: service,
		sub:     map[string]func(http.ResponseWriter, *http.Request, string){},
	}
}

func (e *entityRoutes[T]) listKey() string {
	return e.service.Collection()
}

func (e *entityRoutes[T]) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := e.service.List(r.Context(), queryFilters(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, e.listKey(), items)
	case http.MethodPost:
		draft := e.newItem()
		if err := decodeJSONBody(w, r, draft); err != nil {
			writeServiceError(w, err)
			return
		}
		item, err := e.service.Create(r.Context(), draft)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, e.itemKey, item)
	default:
		writeMethodNotAllowed(w)
	}
}

func (e *entityRoutes[T]) ByID(w http.ResponseWriter, r *http.Request) {
	id, sub := pathID(r.URL.Path, e.prefix)
	if id == "" {
		writeFailure(w, http.StatusNotFound, "not found")
		return
	}
	if id == "search" && sub == "" {
		e.search(w, r)
		return
	}
	if sub != "" {
		handler, ok := e.sub[sub]
		if !ok {
			writeFailure(w, http.StatusNotFound, "not found")
			return
		}
		handler(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := e.service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, e.itemKey, item)
	case http.MethodPut, http.MethodPatch:
		patch := e.newItem()
		if err := decodeJSONBody(w, r, patch); err != nil {
			writeServiceError(w, err)
			return
		}
		item, err := e.service.Update(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, e.itemKey, item)
	case http.MethodDelete:
		if err := e.service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "id", id)
	default:
		writeMethodNotAllowed(w)
	}
}

func (e *entityRoutes[T]) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	items, err := e.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, e.listKey(), items)
}
