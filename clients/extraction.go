package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// --- Extraction (/chat/completions) ---
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type JSONSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type ResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

type ChatReq struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ChatResp struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`

	// Raw is the undecoded response body.
	Raw []byte `json:"-"`
}

// Content decodes the first choice's message content from Raw.
func (r *ChatResp) Content() (string, error) {
	if err := json.Unmarshal(r.Raw, r); err != nil {
		return "", fmt.Errorf("chat decode: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("chat: no choices in response")
	}
	return r.Choices[0].Message.Content, nil
}

// Chat posts a completion request. Transport failures and non-2xx statuses
// are errors; the body of a successful response is returned undecoded in Raw.
func (h *HTTP) Chat(ctx context.Context, url, bearer string, req ChatReq) (*ChatResp, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chat read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Service: "chat", Status: resp.Status, Code: resp.StatusCode, Body: string(body)}
	}
	return &ChatResp{Raw: body}, nil
}
