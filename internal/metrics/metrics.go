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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/pkg/core"
)

// Metrics holds the engine's Prometheus collectors on a dedicated registry.
type Metrics struct {
	Registry      *prometheus.Registry
	Events        *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Pending       prometheus.Gauge
	SettingsWrite *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoanswer_call_events_total",
			Help: "Normalized call events by kind",
		}, []string{"kind"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoanswer_decisions_total",
			Help: "Engine decisions by outcome",
		}, []string{"outcome"}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "autoanswer_pending_answers",
			Help: "Pending answers currently scheduled (0 or 1)",
		}),
		SettingsWrite: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoanswer_settings_updates_total",
			Help: "Settings replacements by field and channel",
		}, []string{"field", "channel"}),
	}
}

func (m *Metrics) Observe(d answer.Decision) {
	m.Decisions.WithLabelValues(string(d.Outcome)).Inc()
	switch d.Outcome {
	case answer.OutcomeScheduled:
		m.Pending.Set(1)
	case answer.OutcomeCancelled, answer.OutcomeSuperseded, answer.OutcomeFired,
		answer.OutcomeDenied, answer.OutcomeFailed:
		m.Pending.Set(0)
	}
}

func (m *Metrics) ObserveEvent(evt core.CallEvent) {
	m.Events.WithLabelValues(evt.Kind.String()).Inc()
}

func (m *Metrics) SettingsUpdated(field, channel string) {
	m.SettingsWrite.WithLabelValues(field, channel).Inc()
}
