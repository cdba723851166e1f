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

package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autocall/autoanswer/pkg/core"
)

func notification(payload string, metadata map[string]string) core.Notification {
	return core.Notification{
		ID:         "n-1",
		SourceID:   "ws-in",
		Payload:    []byte(payload),
		Metadata:   metadata,
		ReceivedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNormalizeKinds(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    core.EventKind
	}{
		{"ringing state", `{"state":"RINGING","number":"+1555"}`, core.KindRingingDetected},
		{"call_state field", `{"call_state":"incoming"}`, core.KindRingingDetected},
		{"window state change", `{"event_type":"window_state_changed","text":["+1555"]}`, core.KindRingingDetected},
		{"offhook", `{"state":"offhook"}`, core.KindRingingEnded},
		{"idle", `{"state":"idle"}`, core.KindRingingEnded},
		{"missed", `{"call_state":"missed"}`, core.KindRingingEnded},
		{"unknown state wins over event type", `{"state":"dialing","event_type":"window_state_changed"}`, core.KindOther},
		{"other accessibility event", `{"event_type":"view_clicked"}`, core.KindOther},
		{"empty object", `{}`, core.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := Normalize(notification(tt.payload, nil))
			assert.Equal(t, tt.want, evt.Kind)
		})
	}
}

func TestNormalizeCallerExtraction(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		metadata map[string]string
		want     string
	}{
		{"incoming_number first", `{"incoming_number":" +1555 ","number":"+1666"}`, nil, "+1555"},
		{"number field", `{"number":"+1666"}`, nil, "+1666"},
		{"numeric json value", `{"caller_id":15551234}`, nil, "15551234"},
		{"text list skips labels", `{"text":["Incoming call","+1 (555) 010-999"]}`, nil, "+1 (555) 010-999"},
		{"text string", `{"text":"5550100"}`, nil, "5550100"},
		{"text without number", `{"text":["Incoming call","Mom"]}`, nil, ""},
		{"metadata fallback", `{"state":"ringing"}`, map[string]string{"caller": "+1777"}, "+1777"},
		{"blank named field falls through", `{"number":"  ","text":["+1888"]}`, nil, "+1888"},
		{"wrong typed field", `{"number":["+1555"]}`, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := Normalize(notification(tt.payload, tt.metadata))
			assert.Equal(t, tt.want, evt.CallerIdentifier)
		})
	}
}

func TestNormalizeMalformedPayload(t *testing.T) {
	for _, payload := range []string{"", "not json", "[1,2,3]", "null", `"ringing"`} {
		evt := Normalize(notification(payload, map[string]string{"caller": "+1555"}))
		assert.Equal(t, core.KindOther, evt.Kind, "payload %q", payload)
		assert.Empty(t, evt.CallerIdentifier, "payload %q", payload)
	}
}

func TestNormalizeCopiesEnvelope(t *testing.T) {
	n := notification(`{"state":"ringing","number":"+1555","call_id":"c-9"}`, nil)
	evt := Normalize(n)

	assert.Equal(t, n.ID, evt.ID)
	assert.Equal(t, n.SourceID, evt.SourceID)
	assert.Equal(t, n.ReceivedAt, evt.ObservedAt)
	assert.Equal(t, "c-9", evt.CallID)
	assert.Equal(t, "c-9", evt.CallKey())
}

func TestNormalizeCallIDFromMetadata(t *testing.T) {
	evt := Normalize(notification(`{"state":"ringing","number":"+1555"}`, map[string]string{"call_id": "c-1"}))
	assert.Equal(t, "c-1", evt.CallID)

	evt = Normalize(notification(`{"state":"ringing","number":"+1555"}`, nil))
	assert.Equal(t, "+1555", evt.CallKey())
}
