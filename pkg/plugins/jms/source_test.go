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

package jms

import (
	"context"
	"testing"

	"github.com/autocall/autoanswer/internal/logging"
)

func TestStartRequiresQueue(t *testing.T) {
	s := New("jms", "amqp://localhost:5672", "", logging.Discard())
	if err := s.Start(context.Background(), nil); err == nil {
		t.Fatal("expected error without queue_in")
	}
}

func TestStopBeforeStart(t *testing.T) {
	s := New("jms", "amqp://localhost:5672", "calls", logging.Discard())
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Type() != "jms" || s.Name() != "jms" {
		t.Errorf("unexpected identity %s/%s", s.Name(), s.Type())
	}
}
