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

package core

import "time"

// EventKind classifies a normalized call notification.
type EventKind int

const (
	KindOther EventKind = iota
	KindRingingDetected
	KindRingingEnded
)

func (k EventKind) String() string {
	switch k {
	case KindRingingDetected:
		return "ringing_detected"
	case KindRingingEnded:
		return "ringing_ended"
	default:
		return "other"
	}
}

// Notification is a raw record as delivered by a notification source.
type Notification struct {
	ID         string            `json:"id"`
	SourceID   string            `json:"source_id"`
	Payload    []byte            `json:"payload"`
	Metadata   map[string]string `json:"metadata"`
	ReceivedAt time.Time         `json:"received_at"`
}

// CallEvent is the canonical form of a Notification. An empty
// CallerIdentifier means the caller is unknown.
type CallEvent struct {
	ID               string    `json:"id"`
	SourceID         string    `json:"source_id"`
	CallID           string    `json:"call_id,omitempty"`
	CallerIdentifier string    `json:"caller_identifier"`
	Kind             EventKind `json:"kind"`
	ObservedAt       time.Time `json:"observed_at"`
}

// CallKey identifies the call an event belongs to. Platforms that do not
// expose a call ID fall back to the caller identifier.
func (e CallEvent) CallKey() string {
	if e.CallID != "" {
		return e.CallID
	}
	return e.CallerIdentifier
}

// AcceptRequest is handed to a CallController when a pending answer fires.
type AcceptRequest struct {
	PendingID        string
	CallID           string
	CallerIdentifier string
	ScheduledAt      time.Time
	FireAt           time.Time
}
