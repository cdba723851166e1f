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

package httppost

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/autocall/autoanswer/pkg/core"
)

// Source turns each POSTed body into one notification.
type Source struct {
	name    string
	port    int
	server  *http.Server
	logger  *slog.Logger
	maxBody int64
}

func New(name string, port int, logger *slog.Logger) *Source {
	return &Source{
		name:    name,
		port:    port,
		logger:  logger,
		maxBody: 1 << 20,
	}
}

func (s *Source) Name() string { return s.name }
func (s *Source) Type() string { return "http_post" }

func (s *Source) Start(ctx context.Context, sink core.NotificationSink) error {
	s.server = &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: s.Handler(sink)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http_post source starting", "name", s.name, "port", s.port)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Source) Handler(sink core.NotificationSink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody))
		if err != nil || len(body) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		n := core.NewNotification(s.name, body, map[string]string{"device_id": core.DeviceID(r)})
		sink.Publish(n)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"accepted","id":%q}`, n.ID)
	})
}
