package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Identity (/token) ---
type TokenResp struct {
	Token string `json:"token"`
}

// Token asks the identity service for a bearer credential, forwarding the
// caller's cookies. An empty token means the user is not logged in.
func (h *HTTP) Token(ctx context.Context, url string, cookies []*http.Cookie) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Service: "identity", Status: resp.Status, Code: resp.StatusCode, Body: string(body)}
	}

	var out TokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("identity decode: %w", err)
	}
	return out.Token, nil
}
