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
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/autocall/autoanswer/internal/settings"
)

// Watcher re-applies the settings section whenever the config file changes.
type Watcher struct {
	path     string
	settings *settings.Settings
	interval time.Duration
	logger   *slog.Logger
	lastMod  time.Time
	onApply  func(field string)
}

func NewWatcher(path string, s *settings.Settings, logger *slog.Logger) *Watcher {
	w := &Watcher{
		path:     path,
		settings: s,
		interval: 5 * time.Second,
		logger:   logger,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w
}

// OnApply registers a hook called once per replaced field.
func (w *Watcher) OnApply(fn func(field string)) {
	w.onApply = fn
}

func (w *Watcher) Watch(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Warn("config stat failed", "path", w.path, "error", err)
		return false
	}

	if !info.ModTime().After(w.lastMod) {
		return false
	}

	w.lastMod = info.ModTime()

	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload failed", "path", w.path, "error", err)
		return false
	}

	applied, err := cfg.Settings.Apply(w.settings)
	if err != nil {
		w.logger.Error("settings reload failed", "path", w.path, "error", err)
	}
	for _, field := range applied {
		if w.onApply != nil {
			w.onApply(field)
		}
	}
	w.logger.Info("settings reloaded", "fields", applied)
	return len(applied) > 0
}
