package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/patient-pulse/cache"
	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/clients"
	cfg "github.com/maastricht-university/patient-pulse/config"
	"github.com/maastricht-university/patient-pulse/entities"
)

const prosodyCSV = "BeginTime,EndTime,Text,sad,joy\n" +
	"0,2.5,Hi,,0.2\n" +
	"2.5,5,My head hurts since the aspirin,0.6,\n" +
	"5,8,Ok,,0.4\n"

const extraction = `{"symptoms":[{"name":"headache","lines":[2]}],"drugs":[{"name":"aspirin","lines":[2]}],"diseases":[]}`

func chatBody(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	require.NoError(t, err)
	return b
}

func writeDemo(t *testing.T) catalog.Demo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.csv")
	require.NoError(t, os.WriteFile(path, []byte(prosodyCSV), 0o644))
	return catalog.Demo{Title: "demo", Prosody: path}
}

func testConfig(chatURL string) *cfg.Root {
	c := &cfg.Root{}
	c.Services.Extraction = cfg.Extraction{URL: chatURL, Model: "gpt-4o-mini", App: "patient-pulse", Timeout: 5 * time.Second}
	c.Services.Identity = cfg.Identity{LoginURL: "https://id.example/login"}
	return c
}

func TestPipelineLoad(t *testing.T) {
	var got clients.ChatReq
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(chatBody(t, "```json\n"+extraction+"\n```"))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	p := NewPipeline(testConfig(srv.URL), nil, log)
	tl, set, err := p.Load(context.Background(), writeDemo(t), []string{"sad", "joy"}, "tok")
	require.NoError(t, err)

	assert.Len(t, tl, 3)
	assert.Equal(t, 0.6, tl[1].Values.Get("sad"))
	assert.Equal(t, "Bearer tok:patient-pulse", auth)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "1. Hi\n2. My head hurts since the aspirin\n3. Ok", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "extraction", got.ResponseFormat.JSONSchema.Name)

	assert.Equal(t, "aspirin", set[entities.Drugs][0].Name)
	assert.Equal(t, "headache", set[entities.Symptoms][0].Name)
	assert.Empty(t, set[entities.Diseases])
}

func TestPipelineRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	p := NewPipeline(testConfig(srv.URL), nil, log)
	_, _, err := p.Load(context.Background(), writeDemo(t), nil, "tok")

	var re *ExtractionRequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusTooManyRequests, re.Code)
	assert.Equal(t, "slow down", re.Body)
}

func TestPipelineParseFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(t, `{"symptoms": "none"}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	p := NewPipeline(testConfig(srv.URL), nil, log)
	_, _, err := p.Load(context.Background(), writeDemo(t), nil, "tok")

	var pe *ExtractionParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Raw, "symptoms")
}

func TestPipelineTimelineErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewPipeline(testConfig("http://unused.invalid"), nil, log)

	_, _, err := p.Load(context.Background(), catalog.Demo{Prosody: filepath.Join(t.TempDir(), "missing.csv")}, nil, "tok")
	assert.ErrorContains(t, err, "missing.csv")

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("BeginTime,Text\n"), 0o644))
	_, _, err = p.Load(context.Background(), catalog.Demo{Prosody: empty}, nil, "tok")
	assert.ErrorContains(t, err, "no lines")

	_, _, err = p.Load(context.Background(), catalog.Demo{Prosody: empty}, nil, "")
	var ae *AuthError
	assert.True(t, errors.As(err, &ae))
}

func TestPipelineCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(chatBody(t, extraction))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	c, err := cache.Open(t.TempDir(), log)
	require.NoError(t, err)
	defer c.Close()

	p := NewPipeline(testConfig(srv.URL), c, log)
	demo := writeDemo(t)
	_, first, err := p.Load(context.Background(), demo, nil, "tok")
	require.NoError(t, err)
	_, second, err := p.Load(context.Background(), demo, nil, "tok")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
}

func TestCredential(t *testing.T) {
	var cookie string
	id := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			cookie = c.Value
			w.Write([]byte(`{"token":"from-identity"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer id.Close()

	log, _ := test.NewNullLogger()
	conf := testConfig("")
	conf.Services.Identity.URL = id.URL
	p := NewPipeline(conf, nil, log)
	ctx := context.Background()

	tok, err := p.Credential(ctx, "explicit", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "explicit", tok)

	tok, err = p.Credential(ctx, "", []*http.Cookie{{Name: "session", Value: "abc"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "from-identity", tok)
	assert.Equal(t, "abc", cookie)

	_, err = p.Credential(ctx, "", nil, "http://localhost:8080/")
	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "https://id.example/login?next=http%3A%2F%2Flocalhost%3A8080%2F", ae.LoginURL)
	assert.ErrorIs(t, err, ErrAuthRequired)

	conf.Services.Identity.Token = "configured"
	tok, err = p.Credential(ctx, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "configured", tok)
}
