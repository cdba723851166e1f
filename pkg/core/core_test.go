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

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCallKey(t *testing.T) {
	if got := (CallEvent{CallID: "c1", CallerIdentifier: "+1555"}).CallKey(); got != "c1" {
		t.Errorf("expected call id to win, got %q", got)
	}
	if got := (CallEvent{CallerIdentifier: "+1555"}).CallKey(); got != "+1555" {
		t.Errorf("expected caller fallback, got %q", got)
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		KindOther:           "other",
		KindRingingDetected: "ringing_detected",
		KindRingingEnded:    "ringing_ended",
	}
	for k, want := range tests {
		if k.String() != want {
			t.Errorf("%d: expected %q, got %q", k, want, k.String())
		}
	}
}

func TestDenialErrorsWrapActionDenied(t *testing.T) {
	for _, err := range []error{ErrPermissionDenied, ErrUnsupported} {
		if !errors.Is(err, ErrActionDenied) {
			t.Errorf("%v does not wrap ErrActionDenied", err)
		}
	}
	if errors.Is(ErrPermissionDenied, ErrUnsupported) {
		t.Error("denial causes must stay distinct")
	}
}

func TestEncodeAcceptCommand(t *testing.T) {
	scheduled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := EncodeAcceptCommand(AcceptRequest{
		PendingID:        "p1",
		CallerIdentifier: "+15551234",
		ScheduledAt:      scheduled,
	}, scheduled.Add(5*time.Second))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var cmd AcceptCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Command != CommandAcceptRingingCall || cmd.PendingID != "p1" {
		t.Errorf("unexpected command %+v", cmd)
	}
	if got := cmd.IssuedAt.Sub(cmd.ScheduledAt); got != 5*time.Second {
		t.Errorf("expected 5s between schedule and issue, got %s", got)
	}
}

func TestDeviceID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(DeviceIDHeader, "pixel-7")
	if got := DeviceID(r); got != "pixel-7" {
		t.Errorf("expected header device id, got %q", got)
	}

	a := httptest.NewRequest("GET", "/", nil)
	a.RemoteAddr = "10.0.0.5:40000"
	b := httptest.NewRequest("GET", "/", nil)
	b.RemoteAddr = "10.0.0.5:51000"
	if DeviceID(a) != DeviceID(b) {
		t.Error("same host on different ports must map to one device")
	}
	if len(DeviceID(a)) != 12 {
		t.Errorf("expected 12-char id, got %q", DeviceID(a))
	}
}

func TestNewNotification(t *testing.T) {
	n := NewNotification("ws", []byte("{}"), nil)
	if n.ID == "" || n.Metadata == nil || n.ReceivedAt.IsZero() {
		t.Errorf("notification not stamped: %+v", n)
	}
	if !strings.Contains(n.ReceivedAt.String(), "m=") {
		t.Errorf("expected a monotonic reading in ReceivedAt, got %s", n.ReceivedAt)
	}
}
