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

package mqtt5

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/autocall/autoanswer/pkg/core"
)

// Source subscribes to topic_in on an MQTT v5 broker. The subscription is
// renewed every time the connection comes back up.
type Source struct {
	name      string
	brokerURL string
	topicIn   string
	qos       byte
	logger    *slog.Logger

	mu sync.Mutex
	cm *autopaho.ConnectionManager
}

func New(name, brokerURL, topicIn string, logger *slog.Logger) *Source {
	return &Source{
		name:      name,
		brokerURL: brokerURL,
		topicIn:   topicIn,
		qos:       1,
		logger:    logger,
	}
}

func (s *Source) Name() string { return s.name }
func (s *Source) Type() string { return "mqtt5" }

func (s *Source) Start(ctx context.Context, sink core.NotificationSink) error {
	if s.topicIn == "" {
		return fmt.Errorf("mqtt5 %s: topic_in is required", s.name)
	}
	serverURL, err := url.Parse(s.brokerURL)
	if err != nil {
		return fmt.Errorf("mqtt5 invalid URL: %w", err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			s.logger.Info("mqtt5 connection up", "name", s.name)
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{{Topic: s.topicIn, QoS: s.qos}},
			}); err != nil {
				s.logger.Error("mqtt5 subscribe failed", "name", s.name, "topic", s.topicIn, "error", err)
			}
		},
		OnConnectError: func(err error) {
			s.logger.Warn("mqtt5 connect error", "name", s.name, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "autoanswer-" + s.name + "-" + uuid.New().String()[:8],
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					s.deliver(sink, pr.Packet)
					return true, nil
				},
			},
		},
	}

	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("mqtt5 connection: %w", err)
	}
	s.mu.Lock()
	s.cm = cm
	s.mu.Unlock()

	s.logger.Info("mqtt5 source started", "name", s.name, "broker", s.brokerURL, "topic_in", s.topicIn)
	<-cm.Done()
	return nil
}

func (s *Source) deliver(sink core.NotificationSink, p *paho.Publish) {
	if p == nil || p.Topic != s.topicIn && !matches(s.topicIn, p.Topic) {
		return
	}
	sink.Publish(core.NewNotification(s.name, p.Payload, map[string]string{"mqtt_topic": p.Topic}))
}

func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	cm := s.cm
	s.mu.Unlock()
	if cm != nil {
		return cm.Disconnect(ctx)
	}
	return nil
}

// matches reports whether topic is covered by the subscription filter,
// honouring the + and # wildcards.
func matches(filter, topic string) bool {
	fi, ti := 0, 0
	for fi < len(filter) {
		if filter[fi] == '#' {
			return true
		}
		if ti >= len(topic) {
			return filter[fi:] == "/#"
		}
		if filter[fi] == '+' {
			for ti < len(topic) && topic[ti] != '/' {
				ti++
			}
			fi++
			continue
		}
		if filter[fi] != topic[ti] {
			return false
		}
		fi++
		ti++
	}
	return ti == len(topic)
}
