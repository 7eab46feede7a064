// Package server exposes the active playback session over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/orchestrator"
	"github.com/maastricht-university/patient-pulse/wheel"
)

// Credentials resolves the bearer token for a request.
type Credentials interface {
	Credential(ctx context.Context, bearer string, cookies []*http.Cookie, next string) (string, error)
}

type Server struct {
	mgr   *orchestrator.Manager
	creds Credentials
	log   logrus.FieldLogger
}

func New(mgr *orchestrator.Manager, creds Credentials, log logrus.FieldLogger) *Server {
	return &Server{mgr: mgr, creds: creds, log: log}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Detail   string `json:"detail,omitempty"`
	LoginURL string `json:"login_url,omitempty"`
}

type SelectDemoPayload struct {
	Demo *int `json:"demo" binding:"required"`
}

type TickPayload struct {
	Time *float64 `json:"time" binding:"required"`
}

type SelectEntityPayload struct {
	Kind string `json:"kind" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(s.log))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "patient-pulse"})
	})
	r.GET("/demos", s.demos)
	r.POST("/session", s.selectDemo)
	r.GET("/session", s.session)
	r.POST("/session/tick", s.tick)
	r.POST("/session/select", s.selectEntity)
	r.GET("/session/wheel.svg", s.wheelSVG)
	r.POST("/session/export", s.export)
	return r
}

func (s *Server) demos(c *gin.Context) {
	cat := s.mgr.Catalog()
	c.JSON(http.StatusOK, gin.H{"demos": cat.Demos, "emotions": cat.Emotions})
}

func (s *Server) selectDemo(c *gin.Context) {
	var p SelectDemoPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Detail: err.Error()})
		return
	}
	token, err := s.creds.Credential(c.Request.Context(), bearer(c), c.Request.Cookies(), c.GetHeader("Referer"))
	if err != nil {
		s.fail(c, err)
		return
	}
	info, err := s.mgr.Select(*p.Demo, token)
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("wait") == "" {
		c.JSON(http.StatusAccepted, info)
		return
	}
	info, err = s.mgr.Wait(c.Request.Context(), info.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) session(c *gin.Context) {
	info, err := s.mgr.Info()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) tick(c *gin.Context) {
	var p TickPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Detail: err.Error()})
		return
	}
	f, err := s.mgr.Tick(*p.Time)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) selectEntity(c *gin.Context) {
	var p SelectEntityPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Detail: err.Error()})
		return
	}
	f, err := s.mgr.Toggle(orchestrator.EntityRef{Kind: entities.Kind(strings.ToLower(p.Kind)), Name: p.Name})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) wheelSVG(c *gin.Context) {
	st, err := s.mgr.Wheel()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", []byte(wheel.SVG(st)))
}

func (s *Server) export(c *gin.Context) {
	path, err := s.mgr.Export()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": path})
}

// fail maps session errors onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	var auth *orchestrator.AuthError
	var req *orchestrator.ExtractionRequestError
	var parse *orchestrator.ExtractionParseError
	switch {
	case errors.As(err, &auth):
		code, resp.Kind, resp.LoginURL = http.StatusUnauthorized, orchestrator.KindAuthRequired, auth.LoginURL
	case errors.Is(err, orchestrator.ErrAuthRequired):
		code, resp.Kind = http.StatusUnauthorized, orchestrator.KindAuthRequired
	case errors.As(err, &req):
		code, resp.Kind, resp.Detail = http.StatusBadGateway, orchestrator.KindRequestFailed, req.Body
	case errors.As(err, &parse):
		code, resp.Kind, resp.Detail = http.StatusUnprocessableEntity, orchestrator.KindParseFailed, parse.Raw
	case errors.Is(err, orchestrator.ErrNoSession), errors.Is(err, orchestrator.ErrUnknownEntity):
		code = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrNotReady), errors.Is(err, orchestrator.ErrStaleSession):
		code = http.StatusConflict
	case errors.Is(err, catalog.ErrNoDemo):
		code = http.StatusBadRequest
	}
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.AbortWithStatusJSON(code, resp)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
