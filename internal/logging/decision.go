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
	"log/slog"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/pkg/core"
)

// DecisionLogger writes one structured line per engine decision.
type DecisionLogger struct {
	logger *slog.Logger
}

func NewDecisionLogger(logger *slog.Logger) *DecisionLogger {
	return &DecisionLogger{logger: logger}
}

func (l *DecisionLogger) Observe(d answer.Decision) {
	attrs := []any{
		"outcome", string(d.Outcome),
		"state", d.State.String(),
		"event_id", d.EventID,
		"pending_id", d.PendingID,
		"call_id", d.CallID,
		"caller", d.CallerIdentifier,
		"at", d.At,
	}
	if d.Outcome == answer.OutcomeScheduled {
		attrs = append(attrs, "fire_at", d.FireAt)
	}

	switch d.Outcome {
	case answer.OutcomeDenied, answer.OutcomeFailed:
		l.logger.Warn("decision", append(attrs, "error", d.Err)...)
	case answer.OutcomeFiltered, answer.OutcomeDuplicate:
		l.logger.Debug("decision", attrs...)
	default:
		l.logger.Info("decision", attrs...)
	}
}

// LogEvent records a normalized event at debug level.
func (l *DecisionLogger) LogEvent(evt core.CallEvent) {
	l.logger.Debug("call event",
		"event_id", evt.ID,
		"source_id", evt.SourceID,
		"kind", evt.Kind.String(),
		"call_id", evt.CallID,
		"caller", evt.CallerIdentifier,
		"observed_at", evt.ObservedAt.UTC(),
	)
}
