// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

// Package control serves the HTTP control API: settings writes, status
// queries, decision history and the live decision stream.
package control

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/journal"
	"github.com/autocall/autoanswer/internal/metrics"
	"github.com/autocall/autoanswer/internal/settings"
)

// Engine is the part of the answer engine the API exposes.
type Engine interface {
	Status() answer.Status
	Cancel() bool
}

// Sources reports whether call-state notifications are being received.
type Sources interface {
	IsEnabled() bool
	RunningSources() []string
}

// Intake reports dispatcher counters.
type Intake interface {
	Received() uint64
	Dropped() uint64
	LastSeen() time.Time
}

type Deps struct {
	Settings *settings.Settings
	Engine   Engine
	Sources  Sources
	Intake   Intake
	Journal  journal.Store
	Stream   *Stream
	Metrics  *metrics.Metrics
}

type Server struct {
	deps   Deps
	logger *slog.Logger
	server *http.Server
}

func New(addr string, deps Deps, logger *slog.Logger) *Server {
	s := &Server{deps: deps, logger: logger}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router; exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Put("/allow-list", s.handlePutAllowList)
		r.Put("/delay", s.handlePutDelay)
		r.Get("/settings", s.handleGetSettings)
		r.Get("/status", s.handleStatus)
		r.Delete("/pending", s.handleCancelPending)
		r.Get("/decisions", s.handleDecisions)
		if s.deps.Stream != nil {
			r.Get("/decisions/stream", s.deps.Stream.ServeHTTP)
		}
	})
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("control api starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
