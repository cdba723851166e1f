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

// Package normalize turns raw platform notifications into CallEvents.
//
// Payloads are JSON objects written by the device shim. Their shape varies
// across OS versions and accessibility services, so every field is optional
// and extraction falls back to an unknown caller instead of failing.
package normalize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/autocall/autoanswer/pkg/core"
)

var ringingStates = map[string]bool{
	"ringing":  true,
	"incoming": true,
	"alerting": true,
}

var endedStates = map[string]bool{
	"idle":         true,
	"offhook":      true,
	"answered":     true,
	"ended":        true,
	"disconnected": true,
	"rejected":     true,
	"missed":       true,
}

// windowStateChanged is the accessibility event that fires when the
// incoming call screen appears.
const windowStateChanged = "window_state_changed"

var callerFields = []string{"incoming_number", "number", "phone_number", "caller", "caller_id"}

var phoneLike = regexp.MustCompile(`^\+?[0-9][0-9()\-. ]{2,}$`)

// Normalize never fails: a payload it cannot read yields a KindOther event
// with an unknown caller.
func Normalize(n core.Notification) core.CallEvent {
	evt := core.CallEvent{
		ID:         n.ID,
		SourceID:   n.SourceID,
		Kind:       core.KindOther,
		ObservedAt: n.ReceivedAt,
	}

	fields, err := decode(n.Payload)
	if err != nil {
		return evt
	}

	evt.Kind = kindOf(fields)
	evt.CallerIdentifier = callerOf(fields, n.Metadata)
	evt.CallID = stringField(fields, "call_id")
	if evt.CallID == "" {
		evt.CallID = strings.TrimSpace(n.Metadata["call_id"])
	}
	return evt
}

func decode(payload []byte) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, core.ErrMalformedNotification
	}
	if fields == nil {
		return nil, core.ErrMalformedNotification
	}
	return fields, nil
}

func kindOf(fields map[string]any) core.EventKind {
	state := strings.ToLower(stringField(fields, "state"))
	if state == "" {
		state = strings.ToLower(stringField(fields, "call_state"))
	}
	switch {
	case ringingStates[state]:
		return core.KindRingingDetected
	case endedStates[state]:
		return core.KindRingingEnded
	case state != "":
		return core.KindOther
	}

	if strings.ToLower(stringField(fields, "event_type")) == windowStateChanged {
		return core.KindRingingDetected
	}
	return core.KindOther
}

func callerOf(fields map[string]any, metadata map[string]string) string {
	for _, name := range callerFields {
		if v := stringField(fields, name); v != "" {
			return v
		}
	}

	for _, text := range textEntries(fields["text"]) {
		if phoneLike.MatchString(text) {
			return text
		}
	}

	return strings.TrimSpace(metadata["caller"])
}

// stringField returns a trimmed string value; numbers are accepted since
// some shims send the caller as a JSON number.
func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func textEntries(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{strings.TrimSpace(t)}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}
