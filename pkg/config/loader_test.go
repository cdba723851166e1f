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

package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/settings"
	"github.com/autocall/autoanswer/pkg/core"
)

const sample = `
engine:
  empty_allow_list: match_all
  overlap: replace
  controller: shim
  action_timeout: 3s
settings:
  allow_list: ["+1555", "+1666"]
  delay_seconds: 5
sources:
  - name: ws-in
    type: websocket
    port: 8066
  - name: kafka-in
    type: kafka
    config:
      brokers: "localhost:9092"
      topic_in: call-events
controllers:
  - name: shim
    type: http
    config:
      url: http://phone.local:8080/accept
journal:
  store: sqlite
  path: /tmp/journal.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[1].Config["topic_in"] != "call-events" {
		t.Fatalf("expected topic_in call-events, got %q", cfg.Sources[1].Config["topic_in"])
	}
	if cfg.Controller().Type != "http" {
		t.Fatalf("expected http controller, got %q", cfg.Controller().Type)
	}
	if cfg.Journal.Store != "sqlite" {
		t.Fatalf("expected sqlite journal, got %q", cfg.Journal.Store)
	}

	opts := cfg.EngineOptions()
	if opts.EmptyListPolicy != settings.MatchAll {
		t.Fatalf("expected match_all, got %s", opts.EmptyListPolicy)
	}
	if opts.Overlap != answer.OverlapReplace {
		t.Fatalf("expected replace, got %s", opts.Overlap)
	}
	if opts.ActionTimeout != 3*time.Second {
		t.Fatalf("expected 3s action timeout, got %s", opts.ActionTimeout)
	}
	if cfg.Control.Addr != ":8090" {
		t.Fatalf("expected default control addr, got %q", cfg.Control.Addr)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sources: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Controller != "log" || cfg.Controller().Type != "log" {
		t.Fatalf("expected default log controller, got %+v", cfg.Controller())
	}
	if cfg.Settings.AllowList != nil || cfg.Settings.DelaySeconds != nil {
		t.Fatal("expected unset settings")
	}
	if cfg.EngineOptions().EmptyListPolicy != settings.MatchNone {
		t.Fatal("expected match_none by default")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bad overlap", "engine:\n  overlap: queue\n", core.ErrUnknownPolicy},
		{"bad empty policy", "engine:\n  empty_allow_list: all\n", core.ErrUnknownPolicy},
		{"negative delay", "settings:\n  delay_seconds: -2\n", core.ErrInvalidDelay},
		{"delay overflows duration", "settings:\n  delay_seconds: 10000000000\n", core.ErrInvalidDelay},
		{"missing controller", "engine:\n  controller: nope\ncontrollers:\n  - name: log\n    type: log\n", core.ErrControllerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSettingsApply(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := settings.New()
	applied, err := cfg.Settings.Apply(s)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied fields, got %v", applied)
	}
	if !s.AllowList().Contains("+1666") || s.DelaySeconds() != 5 {
		t.Fatalf("settings not applied: %v %d", s.AllowList().Entries(), s.DelaySeconds())
	}
}

func TestWatcherReappliesOnChange(t *testing.T) {
	path := writeConfig(t, "settings:\n  allow_list: [\"+1555\"]\n")
	s := settings.New()
	w := NewWatcher(path, s, discardLogger())

	var fields []string
	w.OnApply(func(field string) { fields = append(fields, field) })

	if w.check() {
		t.Fatal("unchanged file must not be re-applied")
	}

	if err := os.WriteFile(path, []byte("settings:\n  allow_list: [\"+1777\"]\n  delay_seconds: 2\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if !w.check() {
		t.Fatal("expected settings to be re-applied")
	}
	if !s.AllowList().Contains("+1777") || s.DelaySeconds() != 2 {
		t.Fatalf("unexpected settings: %v %d", s.AllowList().Entries(), s.DelaySeconds())
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 applied fields, got %v", fields)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
