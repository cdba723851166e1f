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

package jms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Azure/go-amqp"

	"github.com/autocall/autoanswer/pkg/core"
)

// Source receives notifications from an AMQP 1.0 queue (ActiveMQ Artemis,
// Azure Service Bus and other JMS brokers).
type Source struct {
	name    string
	url     string
	queueIn string
	logger  *slog.Logger

	mu   sync.Mutex
	conn *amqp.Conn
}

func New(name, url, queueIn string, logger *slog.Logger) *Source {
	return &Source{
		name:    name,
		url:     url,
		queueIn: queueIn,
		logger:  logger,
	}
}

func (s *Source) Name() string { return s.name }
func (s *Source) Type() string { return "jms" }

func (s *Source) Start(ctx context.Context, sink core.NotificationSink) error {
	if s.queueIn == "" {
		return fmt.Errorf("jms %s: queue_in is required", s.name)
	}

	conn, err := amqp.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("jms dial: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	sess, err := conn.NewSession(ctx, nil)
	if err != nil {
		return fmt.Errorf("jms session: %w", err)
	}

	receiver, err := sess.NewReceiver(ctx, s.queueIn, &amqp.ReceiverOptions{Credit: 1})
	if err != nil {
		return fmt.Errorf("jms receiver: %w", err)
	}

	s.logger.Info("jms source started", "name", s.name, "url", s.url, "queue_in", s.queueIn)

	for {
		msg, err := receiver.Receive(ctx, nil)
		if err != nil {
			var connErr *amqp.ConnError
			if ctx.Err() != nil || errors.As(err, &connErr) {
				return nil
			}
			return fmt.Errorf("jms receive: %w", err)
		}

		sink.Publish(core.NewNotification(s.name, msg.GetData(), map[string]string{"jms_queue": s.queueIn}))

		if err := receiver.AcceptMessage(ctx, msg); err != nil && ctx.Err() == nil {
			s.logger.Warn("jms accept failed", "name", s.name, "error", err)
		}
	}
}

func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
