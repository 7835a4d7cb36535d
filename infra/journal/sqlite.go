package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/robofleet/core/events"
)

// SQLiteStore persists events to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared between queries
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS mutations (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT,
        ts INTEGER,
        op TEXT,
        robot_id TEXT,
        outcome TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS mutations_robot ON mutations (robot_id);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the event to the database.
func (s *SQLiteStore) Append(ctx context.Context, ev events.MutationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mutations (id, ts, op, robot_id, outcome, record) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Time.UnixNano(), string(ev.Op), ev.RobotID, string(ev.Outcome), string(b))
	return err
}

// Query returns events matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]events.MutationEvent, error) {
	var args []any
	where := ` WHERE 1=1`
	if !q.Start.IsZero() {
		where += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		where += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Op != "" {
		where += ` AND op = ?`
		args = append(args, string(q.Op))
	}
	if q.RobotID != "" {
		where += ` AND robot_id = ?`
		args = append(args, q.RobotID)
	}
	if q.Outcome != "" {
		where += ` AND outcome = ?`
		args = append(args, string(q.Outcome))
	}
	query := `SELECT record FROM mutations` + where + ` ORDER BY seq`
	if q.Limit > 0 {
		query = `SELECT record FROM (SELECT seq, record FROM mutations` + where +
			` ORDER BY seq DESC LIMIT ?) ORDER BY seq`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []events.MutationEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var ev events.MutationEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
