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

package solace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"solace.dev/go/messaging"
	"solace.dev/go/messaging/pkg/solace"
	"solace.dev/go/messaging/pkg/solace/config"
	"solace.dev/go/messaging/pkg/solace/resource"

	"github.com/autocall/autoanswer/pkg/core"
)

// Controller publishes accept commands as direct messages on topic_out.
type Controller struct {
	name     string
	host     string
	vpn      string
	username string
	password string
	topicOut string
	logger   *slog.Logger

	mu        sync.Mutex
	service   solace.MessagingService
	publisher solace.DirectMessagePublisher
}

func New(name, host, vpn, username, password, topicOut string, logger *slog.Logger) *Controller {
	return &Controller{
		name:     name,
		host:     host,
		vpn:      vpn,
		username: username,
		password: password,
		topicOut: topicOut,
		logger:   logger,
	}
}

func (c *Controller) Name() string { return c.name }
func (c *Controller) Type() string { return "solace" }

func (c *Controller) Connect(ctx context.Context) error {
	if c.topicOut == "" {
		return fmt.Errorf("solace %s: topic_out is required", c.name)
	}
	service, err := messaging.NewMessagingServiceBuilder().
		FromConfigurationProvider(config.ServicePropertyMap{
			config.TransportLayerPropertyHost:                c.host,
			config.ServicePropertyVPNName:                    c.vpn,
			config.AuthenticationPropertySchemeBasicUserName: c.username,
			config.AuthenticationPropertySchemeBasicPassword: c.password,
		}).Build()
	if err != nil {
		return fmt.Errorf("solace build: %w", err)
	}
	if err := service.Connect(); err != nil {
		return fmt.Errorf("solace connect: %w", err)
	}

	publisher, err := service.CreateDirectMessagePublisherBuilder().Build()
	if err != nil {
		service.Disconnect()
		return fmt.Errorf("solace publisher build: %w", err)
	}
	if err := publisher.Start(); err != nil {
		service.Disconnect()
		return fmt.Errorf("solace publisher start: %w", err)
	}

	c.mu.Lock()
	c.service = service
	c.publisher = publisher
	c.mu.Unlock()

	c.logger.Info("solace controller connected", "name", c.name, "host", c.host, "topic_out", c.topicOut)
	return nil
}

func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publisher != nil {
		c.publisher.Terminate(5 * time.Second)
		c.publisher = nil
	}
	if c.service != nil {
		err := c.service.Disconnect()
		c.service = nil
		return err
	}
	return nil
}

func (c *Controller) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	c.mu.Lock()
	service, publisher := c.service, c.publisher
	c.mu.Unlock()
	if service == nil || publisher == nil {
		return core.ErrNotConnected
	}

	payload, err := core.EncodeAcceptCommand(req, time.Now())
	if err != nil {
		return err
	}
	msg, err := service.MessageBuilder().
		WithApplicationMessageID(req.PendingID).
		BuildWithByteArrayPayload(payload)
	if err != nil {
		return fmt.Errorf("solace build message: %w", err)
	}
	if err := publisher.Publish(msg, resource.TopicOf(c.topicOut)); err != nil {
		return fmt.Errorf("solace publish accept: %w", err)
	}
	return nil
}
