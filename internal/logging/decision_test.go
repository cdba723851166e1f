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

package logging

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/pkg/core"
)

func TestDecisionLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewDecisionLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Observe(answer.Decision{Outcome: answer.OutcomeFiltered, CallerIdentifier: "+1556"})
	assert.Empty(t, buf.String())

	l.Observe(answer.Decision{Outcome: answer.OutcomeScheduled, CallerIdentifier: "+1555", FireAt: time.Now()})
	assert.Contains(t, buf.String(), "outcome=scheduled")
	assert.Contains(t, buf.String(), "fire_at=")

	buf.Reset()
	l.Observe(answer.Decision{Outcome: answer.OutcomeDenied, Err: core.ErrPermissionDenied})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "missing permission")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
