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

package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/autocall/autoanswer/pkg/core"
)

// Endpoint reads call-state notifications from topic_in and, when used as
// a call controller, writes accept commands to topic_out.
type Endpoint struct {
	name     string
	brokers  []string
	topicIn  string
	topicOut string
	groupID  string
	writer   *kafka.Writer
	logger   *slog.Logger

	mu     sync.Mutex
	reader *kafka.Reader
}

func New(name string, brokers []string, topicIn, topicOut, groupID string, logger *slog.Logger) *Endpoint {
	if groupID == "" {
		groupID = "autoanswer-" + name
	}
	return &Endpoint{
		name:     name,
		brokers:  brokers,
		topicIn:  topicIn,
		topicOut: topicOut,
		groupID:  groupID,
		logger:   logger,
	}
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "kafka" }

func (e *Endpoint) Connect(ctx context.Context) error {
	if e.topicOut == "" {
		return fmt.Errorf("kafka %s: topic_out is required for a controller", e.name)
	}
	e.writer = &kafka.Writer{
		Addr:         kafka.TCP(e.brokers...),
		Topic:        e.topicOut,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	e.logger.Info("kafka controller connected",
		"name", e.name,
		"brokers", strings.Join(e.brokers, ","),
		"topic_out", e.topicOut,
	)
	return nil
}

func (e *Endpoint) Disconnect(ctx context.Context) error {
	if e.writer != nil {
		return e.writer.Close()
	}
	return nil
}

func (e *Endpoint) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	if e.writer == nil {
		return core.ErrNotConnected
	}
	payload, err := core.EncodeAcceptCommand(req, time.Now())
	if err != nil {
		return err
	}
	if err := e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.PendingID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("kafka publish accept: %w", err)
	}
	return nil
}

func (e *Endpoint) Start(ctx context.Context, sink core.NotificationSink) error {
	if e.topicIn == "" {
		return fmt.Errorf("kafka %s: topic_in is required for a source", e.name)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  e.brokers,
		Topic:    e.topicIn,
		GroupID:  e.groupID,
		MaxWait:  500 * time.Millisecond,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	e.mu.Lock()
	e.reader = reader
	e.mu.Unlock()
	defer reader.Close()

	e.logger.Info("kafka source started", "name", e.name, "topic_in", e.topicIn, "group_id", e.groupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		sink.Publish(core.NewNotification(e.name, msg.Value, map[string]string{
			"kafka_key":   string(msg.Key),
			"kafka_topic": msg.Topic,
		}))

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			e.logger.Warn("kafka commit failed", "name", e.name, "offset", msg.Offset, "error", err)
		}
	}
}

func (e *Endpoint) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reader != nil {
		return e.reader.Close()
	}
	return nil
}
