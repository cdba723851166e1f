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

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/autocall/autoanswer/pkg/core"
)

// Controller logs accepts instead of acting on a device. It is the default
// controller and doubles as a dry-run.
// Config options:
//   - deny: "" | "permission" | "unsupported" | "always" (default: "")
//   - latency: duration string e.g. "200ms" (default: "0")
type Controller struct {
	name    string
	deny    string
	latency time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	connected bool
	accepted  []core.AcceptRequest
}

func New(name string, config map[string]string, logger *slog.Logger) *Controller {
	var latency time.Duration
	if s := config["latency"]; s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			latency = d
		}
	}
	return &Controller{
		name:    name,
		deny:    config["deny"],
		latency: latency,
		logger:  logger,
	}
}

func (c *Controller) Name() string { return c.name }
func (c *Controller) Type() string { return "log" }

func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("log controller ready", "name", c.name, "deny", c.deny)
	return nil
}

func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

func (c *Controller) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return core.ErrNotConnected
	}

	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	switch c.deny {
	case "permission":
		return core.ErrPermissionDenied
	case "unsupported":
		return core.ErrUnsupported
	case "always":
		return fmt.Errorf("%w: refused by %s", core.ErrActionDenied, c.name)
	}

	c.mu.Lock()
	c.accepted = append(c.accepted, req)
	c.mu.Unlock()

	c.logger.Info("accept ringing call",
		"controller", c.name,
		"pending_id", req.PendingID,
		"call_id", req.CallID,
		"caller", req.CallerIdentifier,
		"scheduled_at", req.ScheduledAt,
	)
	return nil
}

// Accepted returns the requests this controller has acted on.
func (c *Controller) Accepted() []core.AcceptRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.AcceptRequest(nil), c.accepted...)
}
