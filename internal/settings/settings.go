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

package settings

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/autocall/autoanswer/pkg/core"
)

// MaxDelaySeconds is the longest delay a time.Duration can carry.
const MaxDelaySeconds = math.MaxInt64 / int64(time.Second)

// EmptyListPolicy decides what an empty allow-list means.
type EmptyListPolicy int

const (
	// MatchNone answers nobody while the allow-list is empty.
	MatchNone EmptyListPolicy = iota
	// MatchAll answers every caller, including unknown ones, while the
	// allow-list is empty.
	MatchAll
)

func (p EmptyListPolicy) String() string {
	if p == MatchAll {
		return "match_all"
	}
	return "match_none"
}

func ParseEmptyListPolicy(s string) (EmptyListPolicy, error) {
	switch s {
	case "", "match_none":
		return MatchNone, nil
	case "match_all":
		return MatchAll, nil
	default:
		return MatchNone, fmt.Errorf("%w: empty_allow_list=%s", core.ErrUnknownPolicy, s)
	}
}

// AllowList is an immutable set of caller identifiers.
type AllowList struct {
	entries map[string]struct{}
}

// NewAllowList trims every entry and drops the blank ones, so entries
// compare equal to normalized caller identifiers.
func NewAllowList(ids []string) AllowList {
	entries := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		entries[id] = struct{}{}
	}
	return AllowList{entries: entries}
}

func (a AllowList) Len() int { return len(a.entries) }

func (a AllowList) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := a.entries[id]
	return ok
}

// Permits applies the filter rule for a caller identifier.
func (a AllowList) Permits(id string, policy EmptyListPolicy) bool {
	if a.Len() == 0 {
		return policy == MatchAll
	}
	return a.Contains(id)
}

// Entries returns the identifiers in sorted order.
func (a AllowList) Entries() []string {
	out := make([]string, 0, len(a.entries))
	for id := range a.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot is a point-in-time read of both fields.
type Snapshot struct {
	AllowList    AllowList
	AllowListSet bool
	DelaySeconds int
	DelaySet     bool
}

// Settings holds the allow-list and the answer delay. Each field is replaced
// wholesale and independently; readers never see a partially written field.
type Settings struct {
	allowList atomic.Pointer[AllowList]
	delay     atomic.Int64
	delaySet  atomic.Bool
}

func New() *Settings {
	return &Settings{}
}

func (s *Settings) SetAllowList(ids []string) {
	list := NewAllowList(ids)
	s.allowList.Store(&list)
}

func (s *Settings) SetDelaySeconds(seconds int) error {
	if seconds < 0 || int64(seconds) > MaxDelaySeconds {
		return fmt.Errorf("%w: got %d", core.ErrInvalidDelay, seconds)
	}
	s.delay.Store(int64(seconds))
	s.delaySet.Store(true)
	return nil
}

// AllowList returns the current list. An unset list is empty.
func (s *Settings) AllowList() AllowList {
	if p := s.allowList.Load(); p != nil {
		return *p
	}
	return AllowList{}
}

// DelaySeconds returns the current delay. An unset delay is zero.
func (s *Settings) DelaySeconds() int {
	return int(s.delay.Load())
}

func (s *Settings) Snapshot() Snapshot {
	p := s.allowList.Load()
	snap := Snapshot{
		AllowListSet: p != nil,
		DelaySeconds: int(s.delay.Load()),
		DelaySet:     s.delaySet.Load(),
	}
	if p != nil {
		snap.AllowList = *p
	}
	return snap
}
