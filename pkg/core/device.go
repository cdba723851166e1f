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

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeviceIDHeader lets the device shim name itself on HTTP based sources.
const DeviceIDHeader = "X-Autoanswer-Device-ID"

// DeviceID identifies the device behind an HTTP or websocket request.
func DeviceID(r *http.Request) string {
	if id := r.Header.Get(DeviceIDHeader); id != "" {
		return id
	}

	remoteAddr := r.RemoteAddr
	if remoteAddr == "" {
		return uuid.New().String()
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	if strings.Contains(host, ":") {
		if ip := net.ParseIP(host); ip != nil {
			host = ip.String()
		}
	}

	hash := sha256.Sum256([]byte(host))
	return hex.EncodeToString(hash[:])[:12]
}

// NewNotification stamps a payload received from a source. ReceivedAt keeps
// the monotonic clock reading; convert to UTC only when displaying it.
func NewNotification(sourceID string, payload []byte, metadata map[string]string) Notification {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return Notification{
		ID:         uuid.New().String(),
		SourceID:   sourceID,
		Payload:    payload,
		Metadata:   metadata,
		ReceivedAt: time.Now(),
	}
}
