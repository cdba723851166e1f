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

package mqtt5

import (
	"testing"

	"github.com/eclipse/paho.golang/paho"

	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/pkg/core"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"calls/state", "calls/state", true},
		{"calls/+", "calls/state", true},
		{"calls/+/state", "calls/dev1/state", true},
		{"calls/+/state", "calls/dev1/other", false},
		{"calls/#", "calls/dev1/state", true},
		{"calls/#", "calls", true},
		{"calls/state", "calls/states", false},
		{"calls", "calls/state", false},
	}
	for _, tt := range tests {
		if got := matches(tt.filter, tt.topic); got != tt.want {
			t.Errorf("matches(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

type collectSink struct{ got []core.Notification }

func (c *collectSink) Publish(n core.Notification) { c.got = append(c.got, n) }

func TestDeliverFiltersTopic(t *testing.T) {
	s := New("m", "mqtt://localhost:1883", "calls/+", logging.Discard())
	sink := &collectSink{}

	s.deliver(sink, &paho.Publish{Topic: "calls/dev1", Payload: []byte(`{"state":"ringing"}`)})
	s.deliver(sink, &paho.Publish{Topic: "other/dev1", Payload: []byte(`{}`)})
	s.deliver(sink, nil)

	if len(sink.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.got))
	}
	if sink.got[0].Metadata["mqtt_topic"] != "calls/dev1" {
		t.Errorf("unexpected topic metadata %q", sink.got[0].Metadata["mqtt_topic"])
	}
}
