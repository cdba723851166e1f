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

package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autocall/autoanswer/pkg/core"
)

// Source accepts device connections and treats every text frame as one
// call-state notification.
type Source struct {
	name     string
	port     int
	upgrader websocket.Upgrader
	server   *http.Server
	logger   *slog.Logger
	conns    sync.Map
}

func New(name string, port int, logger *slog.Logger) *Source {
	return &Source{
		name: name,
		port: port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (s *Source) Name() string { return s.name }
func (s *Source) Type() string { return "websocket" }

func (s *Source) Start(ctx context.Context, sink core.NotificationSink) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(sink),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("websocket source starting", "name", s.name, "port", s.port)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.conns.Range(func(_, val any) bool {
		val.(*websocket.Conn).Close()
		return true
	})
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler upgrades requests and forwards frames into sink.
func (s *Source) Handler(sink core.NotificationSink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("ws upgrade failed", "error", err)
			return
		}

		deviceID := core.DeviceID(r)
		s.conns.Store(deviceID, conn)
		defer func() {
			conn.Close()
			s.conns.Delete(deviceID)
			s.logger.Info("ws device disconnected", "device_id", deviceID)
		}()

		s.logger.Info("ws device connected", "device_id", deviceID)
		s.readLoop(conn, deviceID, sink)
	})
}

func (s *Source) readLoop(conn *websocket.Conn, deviceID string, sink core.NotificationSink) {
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("ws read error", "device_id", deviceID, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		sink.Publish(core.NewNotification(s.name, payload, map[string]string{"device_id": deviceID}))
	}
}
