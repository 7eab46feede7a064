package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/patient-pulse/cache"
	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/clients"
	cfg "github.com/maastricht-university/patient-pulse/config"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
)

// Loader produces the timeline and extracted entities for a demo.
type Loader interface {
	Load(ctx context.Context, demo catalog.Demo, categories []string, token string) (timeline.Timeline, entities.Set, error)
}

// Pipeline talks to the identity and extraction services and loads timelines.
type Pipeline struct {
	cfg   *cfg.Root
	http  *clients.HTTP
	cache *cache.Cache
	log   logrus.FieldLogger
}

// NewPipeline builds a pipeline. c may be nil to disable the extraction cache.
func NewPipeline(conf *cfg.Root, c *cache.Cache, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		cfg:   conf,
		http:  clients.NewHTTP(conf.Services.Extraction.Timeout),
		cache: c,
		log:   log,
	}
}

// Credential picks the bearer token: an explicit one from the caller, then
// the configured token, then the identity service. next is where the login
// page should send the user back to.
func (p *Pipeline) Credential(ctx context.Context, bearer string, cookies []*http.Cookie, next string) (string, error) {
	if bearer != "" {
		return bearer, nil
	}
	id := p.cfg.Services.Identity
	if id.Token != "" {
		return id.Token, nil
	}
	if id.URL != "" {
		tok, err := p.http.Token(ctx, id.URL, cookies)
		if err != nil {
			p.log.WithError(err).Warn("identity lookup failed")
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", &AuthError{LoginURL: p.LoginURL(next)}
}

func (p *Pipeline) LoginURL(next string) string {
	login := p.cfg.Services.Identity.LoginURL
	if login == "" || next == "" {
		return login
	}
	return login + "?" + url.Values{"next": {next}}.Encode()
}

// Load fetches and parses the demo's timeline, then extracts entities from
// its transcript. The timeline is never empty on success.
func (p *Pipeline) Load(ctx context.Context, demo catalog.Demo, categories []string, token string) (timeline.Timeline, entities.Set, error) {
	if token == "" {
		return nil, nil, &AuthError{LoginURL: p.LoginURL("")}
	}
	log := p.log.WithField("demo", demo.Title)

	rc, err := p.http.Open(ctx, demo.Prosody)
	if err != nil {
		return nil, nil, fmt.Errorf("timeline %s: %w", demo.Prosody, err)
	}
	tl, err := timeline.Load(rc, categories)
	rc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("timeline %s: %w", demo.Prosody, err)
	}
	if len(tl) == 0 {
		return nil, nil, fmt.Errorf("timeline %s: no lines", demo.Prosody)
	}
	log.WithField("lines", len(tl)).Debug("timeline loaded")

	set, err := p.extract(ctx, tl, token)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("entities", set.Count()).Info("extraction complete")
	return tl, set, nil
}

func (p *Pipeline) extract(ctx context.Context, tl timeline.Timeline, token string) (entities.Set, error) {
	ex := p.cfg.Services.Extraction
	key := cache.Key(ex.Model, timeline.Numbered(tl))

	if p.cache != nil {
		raw, ok, err := p.cache.Get(key)
		if err != nil {
			p.log.WithError(err).Warn("extraction cache read failed")
		}
		if ok {
			if set, err := parseChat(raw); err == nil {
				p.log.Debug("extraction cache hit")
				return set, nil
			}
		}
	}

	bearer := token
	if ex.App != "" {
		bearer += ":" + ex.App
	}
	resp, err := p.http.Chat(ctx, ex.URL, bearer, chatRequest(ex.Model, tl))
	if err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) {
			return nil, &ExtractionRequestError{Status: se.Status, Code: se.Code, Body: se.Body}
		}
		return nil, &ExtractionRequestError{Status: "transport error", Body: err.Error()}
	}

	set, err := parseChat(resp.Raw)
	if err != nil {
		return nil, err
	}
	if p.cache != nil && ctx.Err() == nil {
		if err := p.cache.Put(key, resp.Raw); err != nil {
			p.log.WithError(err).Warn("extraction cache write failed")
		}
	}
	return set, nil
}
