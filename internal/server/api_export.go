package server

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"lexdesk/internal/logging"
	"lexdesk/internal/report"
)

// ExportCases renders the filtered case list as an XLSX workbook.
func (a *API) ExportCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	cases, err := a.Services.Cases.List(r.Context(), queryFilters(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	totals, err := report.WriteCases(&buf, cases)
	if err != nil {
		a.logger(r).Error("case_export_failed", logging.Err(err))
		writeFailure(w, http.StatusInternalServerError, "export failed")
		return
	}
	name := "cases-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Total-Count", strconv.Itoa(totals.Count))
	w.Header().Set("X-Retainer-Total", totals.Retainer.StringFixed(2))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
