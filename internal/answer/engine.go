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

// Package answer implements the delayed auto-answer decision engine.
//
// Ringing events are filtered against the allow-list once, at detection
// time. A passing event schedules a single PendingAnswer; the accept action
// is issued when its timer fires unless a ringing-ended event cancelled it
// first. Fire and cancel are decided under the engine lock, so exactly one
// of them is ever observed.
package answer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autocall/autoanswer/internal/settings"
	"github.com/autocall/autoanswer/pkg/core"
)

const defaultActionTimeout = 10 * time.Second

// Options configures an Engine. Zero values select match_none, reject, the
// system clock and a 10s action timeout.
type Options struct {
	EmptyListPolicy settings.EmptyListPolicy
	Overlap         OverlapPolicy
	Clock           Clock
	// ActionTimeout bounds a single AcceptRingingCall.
	ActionTimeout time.Duration
}

type pendingAnswer struct {
	PendingAnswer
	timer     Timer
	cancelled bool
}

// Engine owns at most one pending answer and decides, under its lock,
// whether that answer fires or is cancelled.
type Engine struct {
	settings   *settings.Settings
	controller core.CallController
	opts       Options
	logger     *slog.Logger
	observers  []Observer

	baseCtx    context.Context
	baseCancel context.CancelFunc
	inflight   sync.WaitGroup

	mu        sync.Mutex
	state     State
	pending   *pendingAnswer
	lastErr   error
	fired     uint64
	cancelled uint64
	closed    bool
}

// NewEngine builds an engine that reads cfg on every ringing event and
// issues accepts through controller. Observers receive every decision.
func NewEngine(
	cfg *settings.Settings,
	controller core.CallController,
	opts Options,
	logger *slog.Logger,
	observers ...Observer,
) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		settings:   cfg,
		controller: controller,
		opts:       opts,
		logger:     logger,
		observers:  observers,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Handle evaluates one event. Callers deliver events one at a time in
// arrival order.
func (e *Engine) Handle(evt core.CallEvent) {
	var decisions []Decision

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	switch evt.Kind {
	case core.KindRingingDetected:
		decisions = e.onRinging(evt)
	case core.KindRingingEnded:
		decisions = e.onEnded(evt)
	}
	e.mu.Unlock()

	e.publish(decisions...)
}

func (e *Engine) onRinging(evt core.CallEvent) []Decision {
	now := e.opts.Clock.Now()

	if e.pending != nil && e.pending.CallKey == evt.CallKey() {
		return []Decision{e.decision(OutcomeDuplicate, StatePending, evt, e.pending, now)}
	}

	prev := e.state
	e.state = StateFiltering
	if !e.settings.AllowList().Permits(evt.CallerIdentifier, e.opts.EmptyListPolicy) {
		e.state = prev
		return []Decision{e.decision(OutcomeFiltered, StateIdle, evt, nil, now)}
	}

	var decisions []Decision
	if e.pending != nil {
		if e.opts.Overlap == OverlapReject {
			e.state = prev
			return []Decision{e.decision(OutcomeRejected, StateIdle, evt, nil, now)}
		}
		superseded := e.pending
		e.cancelLocked()
		decisions = append(decisions, e.decision(OutcomeSuperseded, StateCancelled, evt, superseded, now))
	}

	delay := delayDuration(e.settings.DelaySeconds())
	p := &pendingAnswer{PendingAnswer: PendingAnswer{
		ID:               uuid.New().String(),
		CallKey:          evt.CallKey(),
		CallID:           evt.CallID,
		CallerIdentifier: evt.CallerIdentifier,
		ScheduledAt:      now,
		FireAt:           now.Add(delay),
	}}
	e.pending = p
	e.state = StatePending
	p.timer = e.opts.Clock.AfterFunc(delay, func() { e.fire(p) })

	return append(decisions, e.decision(OutcomeScheduled, StatePending, evt, p, now))
}

// delayDuration converts seconds without wrapping; out-of-range values
// saturate so a pending answer never fires early.
func delayDuration(seconds int) time.Duration {
	switch {
	case seconds <= 0:
		return 0
	case int64(seconds) > settings.MaxDelaySeconds:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds) * time.Second
}

func (e *Engine) onEnded(evt core.CallEvent) []Decision {
	if e.pending == nil || !sameCall(e.pending, evt) {
		return nil
	}
	p := e.pending
	e.cancelLocked()
	return []Decision{e.decision(OutcomeCancelled, StateCancelled, evt, p, e.opts.Clock.Now())}
}

// sameCall matches by call ID when both sides carry one, then by caller.
// An ended event that identifies nothing applies to the pending call.
func sameCall(p *pendingAnswer, evt core.CallEvent) bool {
	if p.CallID != "" && evt.CallID != "" {
		return p.CallID == evt.CallID
	}
	if p.CallerIdentifier != "" && evt.CallerIdentifier != "" {
		return p.CallerIdentifier == evt.CallerIdentifier
	}
	return true
}

// cancelLocked is idempotent; e.mu must be held.
func (e *Engine) cancelLocked() {
	p := e.pending
	if p == nil || p.cancelled {
		return
	}
	p.cancelled = true
	if p.timer != nil {
		p.timer.Stop()
	}
	e.pending = nil
	e.state = StateIdle
	e.cancelled++
}

// Cancel drops the pending answer, if any, without waiting for an event.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	p := e.pending
	if p == nil {
		e.mu.Unlock()
		return false
	}
	e.cancelLocked()
	d := e.decision(OutcomeCancelled, StateCancelled, core.CallEvent{}, p, e.opts.Clock.Now())
	e.mu.Unlock()

	e.publish(d)
	return true
}

func (e *Engine) fire(p *pendingAnswer) {
	e.mu.Lock()
	if e.closed || p.cancelled || e.pending != p {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.state = StateFired
	e.fired++
	e.inflight.Add(1)
	e.mu.Unlock()
	defer e.inflight.Done()

	req := core.AcceptRequest{
		PendingID:        p.ID,
		CallID:           p.CallID,
		CallerIdentifier: p.CallerIdentifier,
		ScheduledAt:      p.ScheduledAt,
		FireAt:           p.FireAt,
	}

	ctx, cancel := context.WithTimeout(e.baseCtx, e.opts.ActionTimeout)
	err := e.controller.AcceptRingingCall(ctx, req)
	cancel()

	outcome := OutcomeFired
	switch {
	case errors.Is(err, core.ErrActionDenied):
		outcome = OutcomeDenied
	case err != nil:
		outcome = OutcomeFailed
	}

	now := e.opts.Clock.Now()
	e.mu.Lock()
	if e.state == StateFired {
		e.state = StateIdle
	}
	if err != nil {
		e.lastErr = err
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("accept ringing call failed",
			"pending_id", p.ID,
			"controller", e.controller.Name(),
			"error", err,
		)
	}

	d := e.decision(outcome, StateFired, core.CallEvent{}, p, now)
	d.Err = err
	e.publish(d)
}

func (e *Engine) decision(outcome Outcome, state State, evt core.CallEvent, p *pendingAnswer, at time.Time) Decision {
	d := Decision{
		Outcome:          outcome,
		State:            state,
		EventID:          evt.ID,
		CallID:           evt.CallID,
		CallerIdentifier: evt.CallerIdentifier,
		At:               at,
	}
	if p != nil {
		d.PendingID = p.ID
		d.CallID = p.CallID
		d.CallerIdentifier = p.CallerIdentifier
		d.FireAt = p.FireAt
	}
	return d
}

func (e *Engine) publish(decisions ...Decision) {
	for _, d := range decisions {
		for _, o := range e.observers {
			o.Observe(d)
		}
	}
}

// Status returns a snapshot of the state, the pending answer and counters.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		State:     e.state,
		StateName: e.state.String(),
		Fired:     e.fired,
		Cancelled: e.cancelled,
	}
	if e.pending != nil {
		pa := e.pending.PendingAnswer
		st.Pending = &pa
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// LastError is the most recent accept failure, nil if none occurred.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Close cancels the pending answer and waits for an in-flight accept.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.cancelLocked()
	e.closed = true
	e.mu.Unlock()

	e.inflight.Wait()
	e.baseCancel()
}
