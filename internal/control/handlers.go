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

package control

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/journal"
	"github.com/autocall/autoanswer/pkg/core"
)

const channelHTTP = "http"

type allowListRequest struct {
	AllowList []string `json:"allow_list"`
}

// delayRequest keeps the field as a pointer so an explicit null can be told
// apart from a missing body.
type delayRequest struct {
	DelaySeconds *int `json:"delay_seconds"`
}

type settingsResponse struct {
	AllowList    []string `json:"allow_list"`
	AllowListSet bool     `json:"allow_list_set"`
	DelaySeconds int      `json:"delay_seconds"`
	DelaySet     bool     `json:"delay_set"`
}

type intakeStatus struct {
	Received uint64     `json:"received"`
	Dropped  uint64     `json:"dropped"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type statusResponse struct {
	Enabled bool          `json:"enabled"`
	Sources []string      `json:"sources"`
	Engine  answer.Status `json:"engine"`
	Intake  *intakeStatus `json:"intake,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePutAllowList(w http.ResponseWriter, r *http.Request) {
	var req allowListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.AllowList == nil {
		req.AllowList = []string{}
	}

	s.deps.Settings.SetAllowList(req.AllowList)
	s.settingsUpdated("allow_list")
	s.logger.Info("allow-list replaced", "channel", channelHTTP, "entries", s.deps.Settings.AllowList().Len())

	writeJSON(w, http.StatusOK, s.settingsSnapshot())
}

func (s *Server) handlePutDelay(w http.ResponseWriter, r *http.Request) {
	var req delayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.DelaySeconds == nil {
		writeJSON(w, http.StatusOK, s.settingsSnapshot())
		return
	}

	if err := s.deps.Settings.SetDelaySeconds(*req.DelaySeconds); err != nil {
		if errors.Is(err, core.ErrInvalidDelay) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_delay", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	s.settingsUpdated("delay_seconds")
	s.logger.Info("delay replaced", "channel", channelHTTP, "delay_seconds", *req.DelaySeconds)

	writeJSON(w, http.StatusOK, s.settingsSnapshot())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settingsSnapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Sources: []string{}}
	if s.deps.Sources != nil {
		resp.Enabled = s.deps.Sources.IsEnabled()
		if names := s.deps.Sources.RunningSources(); names != nil {
			resp.Sources = names
		}
	}
	if s.deps.Engine != nil {
		resp.Engine = s.deps.Engine.Status()
	}
	if s.deps.Intake != nil {
		in := &intakeStatus{
			Received: s.deps.Intake.Received(),
			Dropped:  s.deps.Intake.Dropped(),
		}
		if last := s.deps.Intake.LastSeen(); !last.IsZero() {
			in.LastSeen = &last
		}
		resp.Intake = in
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelPending(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine == nil || !s.deps.Engine.Cancel() {
		writeError(w, http.StatusNotFound, "not_found", "no pending answer")
		return
	}
	s.logger.Info("pending answer cancelled", "channel", channelHTTP)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		writeJSON(w, http.StatusOK, []journal.Entry{})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, 1000)
	}

	entries, err := s.deps.Journal.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("journal list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) settingsSnapshot() settingsResponse {
	snap := s.deps.Settings.Snapshot()
	return settingsResponse{
		AllowList:    snap.AllowList.Entries(),
		AllowListSet: snap.AllowListSet,
		DelaySeconds: snap.DelaySeconds,
		DelaySet:     snap.DelaySet,
	}
}

func (s *Server) settingsUpdated(field string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SettingsUpdated(field, channelHTTP)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	writeJSON(w, status, body)
}
