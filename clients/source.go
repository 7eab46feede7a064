package clients

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
)

// Open returns a reader for a local path or an http(s) URL.
func (h *HTTP) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
		return os.Open(loc)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Service: "fetch " + loc, Status: resp.Status, Code: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}
