package server

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"lexdesk/internal/logging"
	"lexdesk/internal/types"
)

type API struct {
	Version  string
	Services *Services
	Metrics  *Metrics
	Logger   logging.Logger
	Shutdown func(context.Context) error

	cases     *entityRoutes[*types.Case]
	clients   *entityRoutes[*types.Client]
	documents *entityRoutes[*types.Document]
	tasks     *entityRoutes[*types.Task]

	shuttingDown atomic.Bool
}

// reservedQuery names query parameters that are never entity filters.
var reservedQuery = map[string]struct{}{
	"q":      {},
	"follow": {},
}

func queryFilters(r *http.Request) map[string]string {
	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if _, reserved := reservedQuery[key]; reserved || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	return types.CloneFilters(filters)
}

// pathID returns the path below prefix split into the id and any remaining
// segment.
func pathID(path, prefix string) (string, string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, sub, _ := strings.Cut(rest, "/")
	return strings.TrimSpace(id), strings.TrimSpace(sub)
}
