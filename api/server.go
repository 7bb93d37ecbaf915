// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes an Assistant over a JSON HTTP API.
//
// Users are addressed by their numeric id. Each user owns one knowledge
// base and one chat session, mirroring the Assistant's model:
//
//	POST   /v1/users/:user/documents   ingest a document (JSON or multipart "file")
//	DELETE /v1/users/:user/documents   clear the knowledge base and end the chat
//	POST   /v1/users/:user/summaries   summarize a document without indexing it (?content=true adds a preview)
//	POST   /v1/users/:user/chat        start a chat with an empty history
//	DELETE /v1/users/:user/chat        end the chat
//	POST   /v1/users/:user/messages    answer a question within the chat
//	PUT    /v1/users/:user/model       select the generation model
//	GET    /v1/namespaces?prefix=      list stored namespaces
//	GET    /v1/models                  list the offered models
//	GET    /healthz                    liveness check
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent"
)

const (
	// DefaultMaxUploadSize bounds document request bodies, JSON or multipart.
	DefaultMaxUploadSize = 10 << 20

	shutdownTimeout = 10 * time.Second
)

// ErrAssistantRequired is returned by NewServer when no assistant is given.
var ErrAssistantRequired = errors.New("assistant is required")

// Server routes HTTP requests to an Assistant.
type Server struct {
	assistant     *docent.Assistant
	router        *gin.Engine
	logger        *slog.Logger
	maxUploadSize int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxUploadSize bounds the size of uploaded documents in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadSize = n
		}
	}
}

// NewServer creates a server for assistant. The caller keeps ownership of
// the assistant.
func NewServer(assistant *docent.Assistant, opts ...Option) (*Server, error) {
	if assistant == nil {
		return nil, ErrAssistantRequired
	}
	s := &Server{
		assistant:     assistant,
		router:        gin.New(),
		logger:        slog.Default(),
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "api")
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/v1")
	{
		v1.GET("/models", s.handleModels)
		v1.GET("/namespaces", s.handleNamespaces)

		users := v1.Group("/users/:user", s.userID())
		users.POST("/documents", s.handleIngest)
		users.DELETE("/documents", s.handleClear)
		users.POST("/summaries", s.handleSummarize)
		users.POST("/chat", s.handleStartChat)
		users.DELETE("/chat", s.handleEndChat)
		users.POST("/messages", s.handleAsk)
		users.PUT("/model", s.handleSelectModel)
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
