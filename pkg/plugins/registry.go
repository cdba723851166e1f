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

package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/autocall/autoanswer/pkg/core"
)

// Registry owns the configured notification sources and call controllers.
type Registry struct {
	sources     map[string]core.NotificationSource
	controllers map[string]core.CallController
	running     map[string]bool
	healthy     map[string]bool
	logger      *slog.Logger
	mu          sync.RWMutex
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sources:     make(map[string]core.NotificationSource),
		controllers: make(map[string]core.CallController),
		running:     make(map[string]bool),
		healthy:     make(map[string]bool),
		logger:      logger,
	}
}

func (r *Registry) RegisterSource(s core.NotificationSource) {
	r.mu.Lock()
	r.sources[s.Name()] = s
	r.mu.Unlock()
	r.logger.Info("registered source", "name", s.Name(), "type", s.Type())
}

func (r *Registry) RegisterController(c core.CallController) {
	r.mu.Lock()
	r.controllers[c.Name()] = c
	r.mu.Unlock()
	r.logger.Info("registered controller", "name", c.Name(), "type", c.Type())
}

func (r *Registry) Controller(name string) (core.CallController, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrControllerNotFound, name)
	}
	return c, nil
}

func (r *Registry) Sources() map[string]core.NotificationSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]core.NotificationSource, len(r.sources))
	for k, v := range r.sources {
		cp[k] = v
	}
	return cp
}

func (r *Registry) ConnectControllers(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	connected := 0
	for name, c := range r.controllers {
		if err := c.Connect(ctx); err != nil {
			r.logger.Error("controller connect failed", "name", name, "error", err)
			r.healthy[name] = false
		} else {
			r.healthy[name] = true
			connected++
		}
	}
	return connected
}

func (r *Registry) IsControllerHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthy[name]
}

// StartSources runs every source in its own goroutine. A source counts as
// running until its Start returns.
func (r *Registry) StartSources(ctx context.Context, sink core.NotificationSink) {
	for name, src := range r.Sources() {
		r.setRunning(name, true)
		go func(n string, s core.NotificationSource) {
			defer r.setRunning(n, false)
			if err := s.Start(ctx, sink); err != nil {
				r.logger.Error("source failed", "name", n, "error", err)
				return
			}
			r.logger.Info("source stopped", "name", n)
		}(name, src)
	}
}

func (r *Registry) setRunning(name string, running bool) {
	r.mu.Lock()
	r.running[name] = running
	r.mu.Unlock()
}

// RunningSources lists the names of sources currently receiving.
func (r *Registry) RunningSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, ok := range r.running {
		if ok {
			out = append(out, name)
		}
	}
	return out
}

// IsEnabled reports whether at least one notification source is receiving.
func (r *Registry) IsEnabled() bool {
	return len(r.RunningSources()) > 0
}

func (r *Registry) StopAll(ctx context.Context) {
	for name, src := range r.Sources() {
		r.logger.Info("stopping source", "name", name)
		if err := src.Stop(ctx); err != nil {
			r.logger.Warn("source stop failed", "name", name, "error", err)
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, c := range r.controllers {
		r.logger.Info("stopping controller", "name", name)
		if err := c.Disconnect(ctx); err != nil {
			r.logger.Warn("controller disconnect failed", "name", name, "error", err)
		}
	}
}
