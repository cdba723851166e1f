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

// Package bridge accepts settings writes and status queries as method-call
// messages on a Redis pub/sub channel. Replies go to "<channel>:reply".
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autocall/autoanswer/internal/metrics"
	"github.com/autocall/autoanswer/internal/settings"
)

const (
	MethodSetWhitelist             = "setWhitelist"
	MethodSetDelay                 = "setDelay"
	MethodCheckAccessibilityStatus = "checkAccessibilityStatus"

	channelBridge = "bridge"
)

// Request is one method call. Arg is interpreted per method.
type Request struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method"`
	Arg    json.RawMessage `json:"arg,omitempty"`
}

type Reply struct {
	ID             string `json:"id,omitempty"`
	Method         string `json:"method"`
	Result         any    `json:"result"`
	Error          string `json:"error,omitempty"`
	NotImplemented bool   `json:"not_implemented,omitempty"`
}

// EnabledFunc reports whether call-state notifications are arriving.
type EnabledFunc func() bool

type Bridge struct {
	settings *settings.Settings
	enabled  EnabledFunc
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(s *settings.Settings, enabled EnabledFunc, m *metrics.Metrics, logger *slog.Logger) *Bridge {
	return &Bridge{settings: s, enabled: enabled, metrics: m, logger: logger}
}

// Handle applies one request. It never panics on bad input; errors are
// carried in the reply.
func (b *Bridge) Handle(req Request) Reply {
	reply := Reply{ID: req.ID, Method: req.Method}

	switch req.Method {
	case MethodCheckAccessibilityStatus:
		reply.Result = b.enabled != nil && b.enabled()

	case MethodSetWhitelist:
		var ids []string
		if len(req.Arg) > 0 {
			if err := json.Unmarshal(req.Arg, &ids); err != nil {
				reply.Error = fmt.Sprintf("setWhitelist: arg must be a list of strings: %v", err)
				return reply
			}
		}
		if ids == nil {
			ids = []string{}
		}
		b.settings.SetAllowList(ids)
		b.updated("allow_list")
		b.logger.Info("allow-list replaced", "channel", channelBridge, "entries", b.settings.AllowList().Len())

	case MethodSetDelay:
		var delay *int
		if len(req.Arg) > 0 {
			if err := json.Unmarshal(req.Arg, &delay); err != nil {
				reply.Error = fmt.Sprintf("setDelay: arg must be an integer: %v", err)
				return reply
			}
		}
		if delay == nil {
			return reply
		}
		if err := b.settings.SetDelaySeconds(*delay); err != nil {
			reply.Error = err.Error()
			return reply
		}
		b.updated("delay_seconds")
		b.logger.Info("delay replaced", "channel", channelBridge, "delay_seconds", *delay)

	default:
		reply.NotImplemented = true
		reply.Error = "not implemented"
	}
	return reply
}

func (b *Bridge) updated(field string) {
	if b.metrics != nil {
		b.metrics.SettingsUpdated(field, channelBridge)
	}
}

// Subscriber runs a Bridge over Redis pub/sub.
type Subscriber struct {
	client  *redis.Client
	channel string
	bridge  *Bridge
	logger  *slog.Logger
}

// Dial connects to Redis at url (redis://host:port/db).
func Dial(url, channel string, b *Bridge, logger *slog.Logger) (*Subscriber, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Subscriber{client: client, channel: channel, bridge: b, logger: logger}, nil
}

func (s *Subscriber) ReplyChannel() string { return s.channel + ":reply" }

// Run consumes requests until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("bridge subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("bridge subscribed", "channel", s.channel, "reply_channel", s.ReplyChannel())

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.process(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) process(ctx context.Context, payload string) {
	var req Request
	var reply Reply
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		s.logger.Warn("bridge message malformed", "error", err)
		reply = Reply{Error: "malformed request"}
	} else {
		reply = s.bridge.Handle(req)
	}

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("bridge reply marshal failed", "error", err)
		return
	}
	if err := s.client.Publish(ctx, s.ReplyChannel(), data).Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("bridge reply publish failed", "method", reply.Method, "error", err)
	}
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}
