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
	"errors"
	"fmt"
)

var (
	// ErrActionDenied is returned when the platform refuses to accept the call.
	ErrActionDenied = errors.New("accept action denied")
	// ErrPermissionDenied and ErrUnsupported are the specific denial causes.
	ErrPermissionDenied = fmt.Errorf("%w: missing permission", ErrActionDenied)
	ErrUnsupported      = fmt.Errorf("%w: unsupported capability", ErrActionDenied)

	ErrMalformedNotification = errors.New("malformed notification")
	ErrInvalidDelay          = errors.New("delay must be a non-negative number of seconds within time.Duration range")
	ErrNotConnected          = errors.New("controller not connected")
	ErrUnknownPolicy         = errors.New("unknown policy")
	ErrControllerNotFound    = errors.New("call controller not found")
)
