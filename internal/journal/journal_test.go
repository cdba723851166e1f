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

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/pkg/core"
)

func entry(i int, at time.Time) Entry {
	return Entry{
		ID:      fmt.Sprintf("e-%d", i),
		Outcome: string(answer.OutcomeScheduled),
		Caller:  "+1555",
		At:      at.Add(time.Duration(i) * time.Second).UTC().Truncate(time.Millisecond),
	}
}

func TestMemoryStoreFIFO(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, entry(i, base)))
	}

	got, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e-4", got[0].ID)
	assert.Equal(t, "e-2", got[2].ID)

	got, err = store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStoreAppendListPrune(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"), 3)
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, entry(i, base)))
	}

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e-4", got[0].ID)
	assert.Equal(t, "e-2", got[2].ID)
	assert.Equal(t, entry(4, base).At, got[0].At)
	assert.Equal(t, "+1555", got[0].Caller)
}

func TestNewStoreFactory(t *testing.T) {
	s, err := NewStore(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(Config{Store: "sqlite"})
	assert.Error(t, err)

	_, err = NewStore(Config{Store: "redis"})
	assert.Error(t, err)

	_, err = NewStore(Config{Store: "postgres"})
	assert.Error(t, err)
}

func TestRecorderWorker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewMemoryStore(10)
	rec := NewRecorder(4, logger)
	worker := NewWorker(store, rec, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	rec.Observe(answer.Decision{
		Outcome:          answer.OutcomeDenied,
		PendingID:        "p-1",
		CallerIdentifier: "+1555",
		At:               time.Now(),
		Err:              core.ErrPermissionDenied,
	})

	require.Eventually(t, func() bool {
		got, _ := store.List(ctx, 0)
		return len(got) == 1
	}, time.Second, time.Millisecond)

	got, _ := store.List(ctx, 0)
	assert.Equal(t, "denied", got[0].Outcome)
	assert.Equal(t, "p-1", got[0].PendingID)
	assert.Contains(t, got[0].Error, "missing permission")
}
