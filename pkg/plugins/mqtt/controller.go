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

package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/autocall/autoanswer/pkg/core"
)

// Controller publishes accept commands to topic_out on an MQTT 3.1.1 broker,
// which is what most device-side shims speak.
type Controller struct {
	name     string
	broker   string
	topicOut string
	qos      byte
	logger   *slog.Logger

	mu     sync.Mutex
	client pahomqtt.Client
}

func New(name, broker, topicOut string, qos byte, logger *slog.Logger) *Controller {
	if qos > 2 {
		qos = 1
	}
	return &Controller{
		name:     name,
		broker:   broker,
		topicOut: topicOut,
		qos:      qos,
		logger:   logger,
	}
}

func (c *Controller) Name() string { return c.name }
func (c *Controller) Type() string { return "mqtt" }

func (c *Controller) Connect(ctx context.Context) error {
	if c.topicOut == "" {
		return fmt.Errorf("mqtt %s: topic_out is required", c.name)
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(c.broker).
		SetClientID("autoanswer-" + c.name).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(pahomqtt.Client) {
			c.logger.Info("mqtt connected", "name", c.name, "broker", c.broker)
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			c.logger.Warn("mqtt connection lost", "name", c.name, "error", err)
		})

	client := pahomqtt.NewClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Disconnect(250)
		c.client = nil
	}
	return nil
}

func (c *Controller) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil || !client.IsConnectionOpen() {
		return core.ErrNotConnected
	}

	payload, err := core.EncodeAcceptCommand(req, time.Now())
	if err != nil {
		return err
	}
	if err := wait(ctx, client.Publish(c.topicOut, c.qos, false, payload)); err != nil {
		return fmt.Errorf("mqtt publish accept: %w", err)
	}
	return nil
}

// wait blocks on a paho token but gives up when ctx is done.
func wait(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
