// Package server provides the HTTP API for campusbot.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/chat"
	"github.com/hyperjump/campusbot/internal/config"
	"github.com/hyperjump/campusbot/internal/keyword"
	"github.com/hyperjump/campusbot/internal/reference"
	"github.com/hyperjump/campusbot/internal/storage"
	"github.com/hyperjump/campusbot/pkg/utils"
)

// Server is the HTTP server for the campusbot API.
type Server struct {
	chat      *chat.Controller
	store     *reference.Store
	index     keyword.ListingIndex
	questions storage.QuestionLog
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. questions may be nil when the
// question log is disabled.
func NewServer(
	controller *chat.Controller,
	store *reference.Store,
	index keyword.ListingIndex,
	questions storage.QuestionLog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:      controller,
		store:     store,
		index:     index,
		questions: questions,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		// Streams are bounded by llm.stream_timeout inside the relay, so they skip the
		// request timeout and compression.
		r.Post("/chat/stream", s.handleChatStream)

		r.Group(func(r chi.Router) {
			if timeout := s.config.Server.RequestTimeout; timeout > 0 {
				r.Use(middleware.Timeout(timeout))
			}
			r.Use(middleware.Compress(5))

			r.Get("/chat", s.handleChatUsage)
			r.Post("/chat", s.handleChat)
			r.Post("/feedback", s.handleFeedback)
			r.Get("/status", s.handleStatus)
			r.Get("/{domain}", s.handleList)
			r.Get("/{domain}/{id}", s.handleGetRecord)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("generator", s.chat.GeneratorName()))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
