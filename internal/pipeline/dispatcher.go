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

package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/autocall/autoanswer/internal/normalize"
	"github.com/autocall/autoanswer/pkg/core"
)

const (
	defaultBufferSize = 256
	// defaultEndedWait bounds how long Publish may block to enqueue a
	// ringing-ended notification into a full buffer.
	defaultEndedWait = 2 * time.Second
)

// Handler consumes normalized events. *answer.Engine satisfies it.
type Handler interface {
	Handle(evt core.CallEvent)
}

// Dispatcher serializes notifications from every source into a single
// ordered stream: normalize, then hand to the engine, one at a time.
type Dispatcher struct {
	ingress   chan core.Notification
	handler   Handler
	logger    *slog.Logger
	observe   func(core.CallEvent)
	endedWait time.Duration
	received  atomic.Uint64
	dropped   atomic.Uint64
	lastSeen  atomic.Int64
}

func NewDispatcher(handler Handler, bufferSize int, logger *slog.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Dispatcher{
		ingress:   make(chan core.Notification, bufferSize),
		handler:   handler,
		logger:    logger,
		endedWait: defaultEndedWait,
	}
}

// OnEvent registers a hook called with every normalized event before it is
// handled.
func (d *Dispatcher) OnEvent(fn func(core.CallEvent)) {
	d.observe = fn
}

// Publish implements core.NotificationSink. A full buffer drops the
// notification, except a ringing-ended one: losing it would let a pending
// answer fire on a call that already stopped ringing, so Publish waits up
// to endedWait for room before giving up.
func (d *Dispatcher) Publish(n core.Notification) {
	select {
	case d.ingress <- n:
		return
	default:
	}

	if normalize.Normalize(n).Kind == core.KindRingingEnded {
		timer := time.NewTimer(d.endedWait)
		defer timer.Stop()
		select {
		case d.ingress <- n:
			return
		case <-timer.C:
		}
	}

	d.dropped.Add(1)
	d.logger.Warn("ingress buffer full, dropping notification",
		"notification_id", n.ID,
		"source_id", n.SourceID,
	)
}

func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "buffer", cap(d.ingress))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped", "received", d.received.Load(), "dropped", d.dropped.Load())
			return
		case n := <-d.ingress:
			d.dispatch(n)
		}
	}
}

func (d *Dispatcher) dispatch(n core.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panic recovered", "notification_id", n.ID, "error", r)
		}
	}()

	d.received.Add(1)
	d.lastSeen.Store(time.Now().UnixNano())

	evt := normalize.Normalize(n)
	if d.observe != nil {
		d.observe(evt)
	}
	d.handler.Handle(evt)
}

func (d *Dispatcher) Received() uint64 { return d.received.Load() }
func (d *Dispatcher) Dropped() uint64  { return d.dropped.Load() }

// LastSeen is the zero time until the first notification arrives.
func (d *Dispatcher) LastSeen() time.Time {
	ns := d.lastSeen.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
