package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ExportCases streams the XLSX case report for filters into w and returns the
// number of bytes written.
func (c *Client) ExportCases(ctx context.Context, filters map[string]string, w io.Writer) Envelope[int64] {
	if w == nil {
		return fail[int64](errors.New("writer is required"))
	}
	resp, err := c.do(ctx, http.MethodGet, CaseResource.Path+"/export"+encodeFilters(filters), nil, "", true)
	if err != nil {
		return fail[int64](err)
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fail[int64](fmt.Errorf("export cases: %w", err))
	}
	return ok(n, resp.StatusCode)
}
