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
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	outcome    TEXT NOT NULL,
	pending_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	caller     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at_unix_ms);
`

// SQLiteStore persists entries to a local SQLite file and prunes the
// oldest rows beyond max.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

func NewSQLiteStore(path string, max int) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	if max <= 0 {
		max = 10000
	}
	return &SQLiteStore{db: db, max: max}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	const insert = `INSERT INTO decisions (id, outcome, pending_id, call_id, caller, error, at_unix_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, insert,
		e.ID, e.Outcome, e.PendingID, e.CallID, e.Caller, e.Error, e.At.UnixMilli(),
	); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}

	const prune = `DELETE FROM decisions WHERE id NOT IN (
	SELECT id FROM decisions ORDER BY at_unix_ms DESC, rowid DESC LIMIT ?)`
	if _, err := s.db.ExecContext(ctx, prune, s.max); err != nil {
		return fmt.Errorf("prune decisions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.max
	}
	const q = `SELECT id, outcome, pending_id, call_id, caller, error, at_unix_ms
FROM decisions
ORDER BY at_unix_ms DESC, rowid DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var atMs int64
		if err := rows.Scan(&e.ID, &e.Outcome, &e.PendingID, &e.CallID, &e.Caller, &e.Error, &atMs); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.At = time.UnixMilli(atMs).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
