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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/journal"
	"github.com/autocall/autoanswer/internal/settings"
	"github.com/autocall/autoanswer/pkg/core"
)

type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Settings    SettingsConfig    `yaml:"settings"`
	Sources     []ComponentConfig `yaml:"sources"`
	Controllers []ComponentConfig `yaml:"controllers"`
	Control     ControlConfig     `yaml:"control"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Journal     journal.Config    `yaml:"journal"`
	Log         LogConfig         `yaml:"log"`
}

type EngineConfig struct {
	EmptyAllowList string        `yaml:"empty_allow_list"`
	Overlap        string        `yaml:"overlap"`
	Controller     string        `yaml:"controller"`
	ActionTimeout  time.Duration `yaml:"action_timeout"`
	BufferSize     int           `yaml:"buffer_size"`
}

// SettingsConfig seeds the runtime settings. Absent fields leave the current
// value untouched on reload.
type SettingsConfig struct {
	AllowList    []string `yaml:"allow_list"`
	DelaySeconds *int     `yaml:"delay_seconds"`
}

// ComponentConfig is reused for sources and controllers.
type ComponentConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Port   int               `yaml:"port"`
	Config map[string]string `yaml:"config"`
}

type ControlConfig struct {
	Addr string `yaml:"addr"`
}

type BridgeConfig struct {
	RedisURL string `yaml:"redis_url"`
	Channel  string `yaml:"channel"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.ActionTimeout == 0 {
		c.Engine.ActionTimeout = 10 * time.Second
	}
	if c.Engine.BufferSize == 0 {
		c.Engine.BufferSize = 256
	}
	if c.Engine.Controller == "" && len(c.Controllers) == 0 {
		c.Controllers = []ComponentConfig{{Name: "log", Type: "log"}}
	}
	if c.Engine.Controller == "" && len(c.Controllers) > 0 {
		c.Engine.Controller = c.Controllers[0].Name
	}
	if c.Control.Addr == "" {
		c.Control.Addr = ":8090"
	}
	if c.Bridge.Channel == "" {
		c.Bridge.Channel = "autoanswer:bridge"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if _, err := settings.ParseEmptyListPolicy(c.Engine.EmptyAllowList); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := answer.ParseOverlapPolicy(c.Engine.Overlap); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if d := c.Settings.DelaySeconds; d != nil && (*d < 0 || int64(*d) > settings.MaxDelaySeconds) {
		return fmt.Errorf("validate config: %w: got %d", core.ErrInvalidDelay, *d)
	}

	seen := make(map[string]bool)
	for _, s := range c.Sources {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("validate config: source needs name and type")
		}
		if seen[s.Name] {
			return fmt.Errorf("validate config: duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}

	found := false
	for _, ctl := range c.Controllers {
		if ctl.Name == c.Engine.Controller {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("validate config: %w: %s", core.ErrControllerNotFound, c.Engine.Controller)
	}
	return nil
}

// EngineOptions translates the engine section; Load has already validated it.
func (c *Config) EngineOptions() answer.Options {
	empty, _ := settings.ParseEmptyListPolicy(c.Engine.EmptyAllowList)
	overlap, _ := answer.ParseOverlapPolicy(c.Engine.Overlap)
	return answer.Options{
		EmptyListPolicy: empty,
		Overlap:         overlap,
		ActionTimeout:   c.Engine.ActionTimeout,
	}
}

// Controller returns the component the engine should use for accepts.
func (c *Config) Controller() ComponentConfig {
	for _, ctl := range c.Controllers {
		if ctl.Name == c.Engine.Controller {
			return ctl
		}
	}
	return ComponentConfig{}
}

// Apply pushes the configured settings fields, reporting which were written.
func (sc SettingsConfig) Apply(s *settings.Settings) ([]string, error) {
	var applied []string
	if sc.AllowList != nil {
		s.SetAllowList(sc.AllowList)
		applied = append(applied, "allow_list")
	}
	if sc.DelaySeconds != nil {
		if err := s.SetDelaySeconds(*sc.DelaySeconds); err != nil {
			return applied, err
		}
		applied = append(applied, "delay_seconds")
	}
	return applied, nil
}
