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

package answer

import (
	"fmt"
	"time"

	"github.com/autocall/autoanswer/pkg/core"
)

// State is the per-call state of the decision engine.
type State int

const (
	StateIdle State = iota
	StateFiltering
	StatePending
	StateFired
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateFiltering:
		return "filtering"
	case StatePending:
		return "pending"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// OverlapPolicy decides what happens when a different call starts ringing
// while an answer is already pending.
type OverlapPolicy int

const (
	// OverlapReject keeps the pending answer and ignores the new call.
	OverlapReject OverlapPolicy = iota
	// OverlapReplace cancels the pending answer and schedules the new call.
	OverlapReplace
)

func (p OverlapPolicy) String() string {
	if p == OverlapReplace {
		return "replace"
	}
	return "reject"
}

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "reject":
		return OverlapReject, nil
	case "replace":
		return OverlapReplace, nil
	default:
		return OverlapReject, fmt.Errorf("%w: overlap=%s", core.ErrUnknownPolicy, s)
	}
}

// Outcome names a decision taken by the engine.
type Outcome string

const (
	OutcomeFiltered   Outcome = "filtered"
	OutcomeScheduled  Outcome = "scheduled"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeRejected   Outcome = "rejected"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeFired      Outcome = "fired"
	OutcomeDenied     Outcome = "denied"
	OutcomeFailed     Outcome = "failed"
)

// PendingAnswer is a scheduled, cancellable accept for one ringing call.
type PendingAnswer struct {
	ID               string    `json:"id"`
	CallKey          string    `json:"call_key"`
	CallID           string    `json:"call_id,omitempty"`
	CallerIdentifier string    `json:"caller_identifier"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	FireAt           time.Time `json:"fire_at"`
}

// Decision is published to observers for every state change the engine makes.
type Decision struct {
	Outcome          Outcome   `json:"outcome"`
	State            State     `json:"-"`
	EventID          string    `json:"event_id,omitempty"`
	PendingID        string    `json:"pending_id,omitempty"`
	CallID           string    `json:"call_id,omitempty"`
	CallerIdentifier string    `json:"caller_identifier"`
	FireAt           time.Time `json:"fire_at,omitzero"`
	At               time.Time `json:"at"`
	Err              error     `json:"-"`
}

// Observer receives decisions. Implementations must not block for long; they
// are called outside the engine lock but on the engine's goroutines.
type Observer interface {
	Observe(d Decision)
}

type ObserverFunc func(d Decision)

func (f ObserverFunc) Observe(d Decision) { f(d) }

// Status is a snapshot of the engine for the status query.
type Status struct {
	State     State          `json:"-"`
	StateName string         `json:"state"`
	Pending   *PendingAnswer `json:"pending,omitempty"`
	LastError string         `json:"last_error,omitempty"`
	Fired     uint64         `json:"fired"`
	Cancelled uint64         `json:"cancelled"`
}
