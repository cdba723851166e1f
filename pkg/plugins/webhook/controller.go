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

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/autocall/autoanswer/pkg/core"
)

// Controller POSTs accept commands to the device shim's HTTP endpoint and
// maps its refusal codes onto the action-denied errors.
type Controller struct {
	name   string
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
}

func New(name, url, token string, timeout time.Duration, logger *slog.Logger) *Controller {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Controller{
		name:   name,
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *Controller) Name() string { return c.name }
func (c *Controller) Type() string { return "http" }

func (c *Controller) Connect(ctx context.Context) error {
	if c.url == "" {
		return fmt.Errorf("http controller %s: url is required", c.name)
	}
	c.logger.Info("http controller ready", "name", c.name, "url", c.url)
	return nil
}

func (c *Controller) Disconnect(ctx context.Context) error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Controller) AcceptRingingCall(ctx context.Context, req core.AcceptRequest) error {
	payload, err := core.EncodeAcceptCommand(req, time.Now())
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build accept request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post accept: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	return statusError(resp.StatusCode, string(bytes.TrimSpace(body)))
}

func statusError(code int, body string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrPermissionDenied, body)
	case code == http.StatusNotImplemented || code == http.StatusUpgradeRequired:
		return fmt.Errorf("%w: %s", core.ErrUnsupported, body)
	default:
		return fmt.Errorf("%w: status %d: %s", core.ErrActionDenied, code, body)
	}
}
