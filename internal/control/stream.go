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

package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/journal"
)

// Stream fans engine decisions out to server-sent-event subscribers. Slow
// subscribers miss decisions rather than stall the engine.
type Stream struct {
	logger *slog.Logger
	buffer int

	mu   sync.Mutex
	subs map[chan journal.Entry]struct{}
}

func NewStream(buffer int, logger *slog.Logger) *Stream {
	if buffer <= 0 {
		buffer = 16
	}
	return &Stream{
		logger: logger,
		buffer: buffer,
		subs:   make(map[chan journal.Entry]struct{}),
	}
}

func (s *Stream) Observe(d answer.Decision) {
	entry := journal.EntryFromDecision(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- entry:
		default:
			s.logger.Warn("sse subscriber lagging, dropping decision", "outcome", entry.Outcome)
		}
	}
}

func (s *Stream) subscribe() chan journal.Entry {
	ch := make(chan journal.Entry, s.buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Stream) unsubscribe(ch chan journal.Entry) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// Subscribers is the number of connected stream clients.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.subscribe()
	defer func() {
		s.unsubscribe(ch)
		s.logger.Info("sse client disconnected", "remote", r.RemoteAddr)
	}()
	s.logger.Info("sse client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			return
		case entry := <-ch:
			data, err := json.Marshal(entry)
			if err != nil {
				s.logger.Error("marshal sse decision failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: decision\ndata: %s\n\n", entry.ID, data)
			flusher.Flush()
		}
	}
}
