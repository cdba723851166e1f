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

package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/pkg/core"
)

type collectSink struct {
	mu  sync.Mutex
	got []core.Notification
}

func (c *collectSink) Publish(n core.Notification) {
	c.mu.Lock()
	c.got = append(c.got, n)
	c.mu.Unlock()
}

func (c *collectSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestHandlerForwardsTextFrames(t *testing.T) {
	sink := &collectSink{}
	src := New("ws-test", 0, logging.Discard())
	srv := httptest.NewServer(src.Handler(sink))
	defer srv.Close()

	header := http.Header{}
	header.Set(core.DeviceIDHeader, "pixel-7")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"state":"ringing","incoming_number":"+15551234"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.len() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.got))
	}
	n := sink.got[0]
	if n.SourceID != "ws-test" {
		t.Errorf("expected source ws-test, got %q", n.SourceID)
	}
	if n.Metadata["device_id"] != "pixel-7" {
		t.Errorf("expected device_id pixel-7, got %q", n.Metadata["device_id"])
	}
}
