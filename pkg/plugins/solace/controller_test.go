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

package solace

import (
	"context"
	"errors"
	"testing"

	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/pkg/core"
)

func TestAcceptBeforeConnect(t *testing.T) {
	c := New("sol", "tcp://localhost:55555", "default", "admin", "admin", "calls/accept", logging.Discard())
	err := c.AcceptRingingCall(context.Background(), core.AcceptRequest{PendingID: "p1"})
	if !errors.Is(err, core.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
}

func TestConnectRequiresTopic(t *testing.T) {
	c := New("sol", "tcp://localhost:55555", "default", "", "", "", logging.Discard())
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected error without topic_out")
	}
}
