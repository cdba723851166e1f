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

package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/internal/metrics"
	"github.com/autocall/autoanswer/internal/settings"
)

func newBridge(enabled bool) (*Bridge, *settings.Settings) {
	s := settings.New()
	return New(s, func() bool { return enabled }, metrics.New(), logging.Discard()), s
}

func request(t *testing.T, raw string) Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	return req
}

func TestSetWhitelist(t *testing.T) {
	b, s := newBridge(false)

	reply := b.Handle(request(t, `{"id":"1","method":"setWhitelist","arg":["+1555"," ","+1666"]}`))
	assert.Empty(t, reply.Error)
	assert.Equal(t, "1", reply.ID)
	assert.Equal(t, []string{"+1555", "+1666"}, s.AllowList().Entries())

	reply = b.Handle(request(t, `{"method":"setWhitelist","arg":null}`))
	assert.Empty(t, reply.Error)
	assert.Equal(t, 0, s.AllowList().Len())
	assert.True(t, s.Snapshot().AllowListSet)

	reply = b.Handle(request(t, `{"method":"setWhitelist","arg":42}`))
	assert.NotEmpty(t, reply.Error)
}

func TestSetDelay(t *testing.T) {
	b, s := newBridge(false)

	reply := b.Handle(request(t, `{"method":"setDelay","arg":5}`))
	assert.Empty(t, reply.Error)
	assert.Equal(t, 5, s.DelaySeconds())

	reply = b.Handle(request(t, `{"method":"setDelay","arg":null}`))
	assert.Empty(t, reply.Error)
	assert.Equal(t, 5, s.DelaySeconds(), "null delay must leave the value unchanged")

	reply = b.Handle(request(t, `{"method":"setDelay"}`))
	assert.Empty(t, reply.Error)
	assert.Equal(t, 5, s.DelaySeconds())

	reply = b.Handle(request(t, `{"method":"setDelay","arg":-2}`))
	assert.NotEmpty(t, reply.Error)
	assert.Equal(t, 5, s.DelaySeconds())

	reply = b.Handle(request(t, `{"method":"setDelay","arg":10000000000}`))
	assert.NotEmpty(t, reply.Error)
	assert.Equal(t, 5, s.DelaySeconds())

	reply = b.Handle(request(t, `{"method":"setDelay","arg":"soon"}`))
	assert.NotEmpty(t, reply.Error)
}

func TestCheckAccessibilityStatus(t *testing.T) {
	on, _ := newBridge(true)
	off, _ := newBridge(false)

	assert.Equal(t, true, on.Handle(Request{Method: MethodCheckAccessibilityStatus}).Result)
	assert.Equal(t, false, off.Handle(Request{Method: MethodCheckAccessibilityStatus}).Result)
}

func TestUnknownMethodNotImplemented(t *testing.T) {
	b, _ := newBridge(true)
	reply := b.Handle(Request{Method: "requestBatteryExemption"})
	assert.True(t, reply.NotImplemented)
	assert.Equal(t, "not implemented", reply.Error)
}
