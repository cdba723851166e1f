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
	"encoding/json"
	"fmt"
	"time"
)

const CommandAcceptRingingCall = "accept_ringing_call"

// AcceptCommand is the wire form of an AcceptRequest published by the
// broker and http controllers. The device shim acts on it.
type AcceptCommand struct {
	Command          string    `json:"command"`
	PendingID        string    `json:"pending_id"`
	CallID           string    `json:"call_id,omitempty"`
	CallerIdentifier string    `json:"caller_identifier"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	IssuedAt         time.Time `json:"issued_at"`
}

func EncodeAcceptCommand(req AcceptRequest, issuedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(AcceptCommand{
		Command:          CommandAcceptRingingCall,
		PendingID:        req.PendingID,
		CallID:           req.CallID,
		CallerIdentifier: req.CallerIdentifier,
		ScheduledAt:      req.ScheduledAt.UTC(),
		IssuedAt:         issuedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode accept command: %w", err)
	}
	return data, nil
}
