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

package journal

import "fmt"

type Config struct {
	Store      string `yaml:"store"` // "memory", "sqlite" or "redis"
	Path       string `yaml:"path"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisKey   string `yaml:"redis_key"`
	MaxEntries int    `yaml:"max_entries"`
}

func NewStore(cfg Config) (Store, error) {
	switch cfg.Store {
	case "memory", "":
		return NewMemoryStore(cfg.MaxEntries), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path is required when store=sqlite")
		}
		return NewSQLiteStore(cfg.Path, cfg.MaxEntries)
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis_addr is required when store=redis")
		}
		return NewRedisStore(cfg.RedisAddr, cfg.RedisKey, cfg.MaxEntries)
	default:
		return nil, fmt.Errorf("unknown journal store type: %s", cfg.Store)
	}
}
