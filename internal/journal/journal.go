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

// Package journal keeps a history of engine decisions for diagnostics.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/autocall/autoanswer/internal/answer"
)

// Entry is one recorded decision.
type Entry struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"`
	PendingID string    `json:"pending_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	Caller    string    `json:"caller"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

func EntryFromDecision(d answer.Decision) Entry {
	e := Entry{
		ID:        uuid.New().String(),
		Outcome:   string(d.Outcome),
		PendingID: d.PendingID,
		CallID:    d.CallID,
		Caller:    d.CallerIdentifier,
		At:        d.At.UTC(),
	}
	if d.Err != nil {
		e.Error = d.Err.Error()
	}
	return e
}

// Store is a pluggable journal backend. List returns newest entries first.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Recorder is an answer.Observer that queues decisions for a Worker.
type Recorder struct {
	inbox  chan Entry
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 128
	}
	return &Recorder{inbox: make(chan Entry, buffer), logger: logger}
}

func (r *Recorder) Observe(d answer.Decision) {
	select {
	case r.inbox <- EntryFromDecision(d):
	default:
		r.logger.Warn("journal queue full, dropping decision", "outcome", d.Outcome, "pending_id", d.PendingID)
	}
}

// Worker drains a Recorder into a Store.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, rec *Recorder, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: rec.inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.inbox:
			if err := w.store.Append(ctx, e); err != nil {
				w.logger.Error("journal append failed", "entry_id", e.ID, "error", err)
			}
		}
	}
}
