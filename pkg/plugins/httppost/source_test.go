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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/pkg/core"
)

type collectSink struct {
	got []core.Notification
}

func (c *collectSink) Publish(n core.Notification) { c.got = append(c.got, n) }

func TestHandler(t *testing.T) {
	sink := &collectSink{}
	h := New("post", 0, logging.Discard()).Handler(sink)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"accepted", http.MethodPost, `{"state":"ringing"}`, http.StatusAccepted},
		{"empty body", http.MethodPost, "", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			req.Header.Set(core.DeviceIDHeader, "dev-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	if len(sink.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.got))
	}
	if got := string(sink.got[0].Payload); got != `{"state":"ringing"}` {
		t.Errorf("unexpected payload %s", got)
	}
	if sink.got[0].Metadata["device_id"] != "dev-1" {
		t.Errorf("expected device id dev-1, got %q", sink.got[0].Metadata["device_id"])
	}
}
