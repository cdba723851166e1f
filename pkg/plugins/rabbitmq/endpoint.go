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

package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/autocall/autoanswer/pkg/core"
)

// Endpoint consumes notifications from queue_in and publishes accept
// commands to queue_out. One AMQP connection is shared by both roles.
type Endpoint struct {
	name     string
	url      string
	queueIn  string
	queueOut string
	logger   *slog.Logger

	mu         sync.Mutex
	conn       *amqp.Connection
	pubCh      *amqp.Channel
	consumerCh *amqp.Channel
}

func New(name, url, queueIn, queueOut string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:     name,
		url:      url,
		queueIn:  queueIn,
		queueOut: queueOut,
		logger:   logger,
	}
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "rabbitmq" }

func (e *Endpoint) dial() (*amqp.Connection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil && !e.conn.IsClosed() {
		return e.conn, nil
	}
	conn, err := amqp.Dial(e.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	e.conn = conn
	return conn, nil
}

func (e *Endpoint) Connect(ctx context.Context) error {
	if e.queueOut == "" {
		return fmt.Errorf("rabbitmq %s: queue_out is required for a controller", e.name)
	}
	conn, err := e.dial()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq publish channel: %w", err)
	}
	if _, err := ch.QueueDeclare(e.queueOut, true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("rabbitmq queue declare %s: %w", e.queueOut, err)
	}

	e.mu.Lock()
	e.pubCh = ch
	e.mu.Unlock()

	e.logger.Info("rabbitmq controller connected", "name", e.name, "queue_out", e.queueOut)
	return nil
}

func (e *Endpoint) Disconnect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pubCh != nil {
		e.pubCh.Close()
		e.pubCh = nil
	}
	if e.consumerCh != nil {
		e.consumerCh.Close()
		e.consumerCh = nil
	}
	if e.conn != nil {
		err := e.conn.Close()
		e.conn = nil
		return err
	}
	return nil
}

func (e *Endpoint) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	e.mu.Lock()
	ch := e.pubCh
	e.mu.Unlock()
	if ch == nil {
		return core.ErrNotConnected
	}

	now := time.Now()
	payload, err := core.EncodeAcceptCommand(req, now)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",
		e.queueOut,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
			MessageId:    req.PendingID,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq publish accept: %w", err)
	}
	return nil
}

func (e *Endpoint) Start(ctx context.Context, sink core.NotificationSink) error {
	if e.queueIn == "" {
		return fmt.Errorf("rabbitmq %s: queue_in is required for a source", e.name)
	}
	conn, err := e.dial()
	if err != nil {
		return err
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	defer consumerCh.Close()

	if _, err := consumerCh.QueueDeclare(e.queueIn, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare %s: %w", e.queueIn, err)
	}
	if err := consumerCh.Qos(1, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	deliveries, err := consumerCh.Consume(
		e.queueIn,
		"autoanswer-"+e.name,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	e.mu.Lock()
	e.consumerCh = consumerCh
	e.mu.Unlock()

	e.logger.Info("rabbitmq source started", "name", e.name, "queue_in", e.queueIn)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			sink.Publish(core.NewNotification(e.name, d.Body, map[string]string{
				"rabbitmq_routing_key": d.RoutingKey,
			}))
			if err := d.Ack(false); err != nil {
				e.logger.Warn("rabbitmq ack failed", "name", e.name, "error", err)
			}
		}
	}
}

func (e *Endpoint) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.consumerCh != nil {
		err := e.consumerCh.Close()
		e.consumerCh = nil
		return err
	}
	return nil
}
