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

import "context"

// NotificationSink receives raw notifications from sources.
type NotificationSink interface {
	Publish(n Notification)
}

// NotificationSource delivers platform call-state notifications (websocket,
// broker subscription, ...) into a sink until ctx is cancelled.
type NotificationSource interface {
	Name() string
	Type() string
	Start(ctx context.Context, sink NotificationSink) error
	Stop(ctx context.Context) error
}

// CallController issues the outbound "accept ringing call" action.
type CallController interface {
	Name() string
	Type() string
	Connect(ctx context.Context) error
	AcceptRingingCall(ctx context.Context, req AcceptRequest) error
	Disconnect(ctx context.Context) error
}
