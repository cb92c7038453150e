package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed sql/schema.sql
var schema string

const (
	SourceFetched = "fetched"
	SourceServed  = "served"
)

// Frame is one payload that passed through calview, either fetched from a
// calendar service or served by ours.
type Frame struct {
	Id        int
	Uuid      uuid.UUID
	Source    string
	Mac       string
	Battery   int
	Location  string
	RowWidth  int
	CreatedAt time.Time
	Size      int
	Payload   []byte
}

type FrameRepository struct {
	Db *sql.DB
}

func Open(path string) (*FrameRepository, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open database:\n%w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Couldn't initialise database:\n%w", err)
	}
	return &FrameRepository{Db: db}, nil
}

func (r *FrameRepository) Close() error {
	return r.Db.Close()
}

// Run operations in a transaction, committing afterward, or rolling back if the
// passed function returns an error
func (r *FrameRepository) Transact(ctx context.Context, f func(*sql.Tx) error) error {
	tx, err := r.Db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := f(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("Failed to roll back transaction: %w\n\nAfter handling: %v", err2, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Failed to commit transaction:\n%w", err)
	}
	return nil
}

func (r *FrameRepository) Create(tx *sql.Tx, f *Frame) error {
	row := tx.QueryRow(`
		INSERT INTO frame(uuid, source, mac, battery, location, row_width, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		f.Uuid.String(), f.Source, f.Mac, f.Battery, f.Location, f.RowWidth, f.CreatedAt, f.Payload)
	if err := row.Scan(&f.Id); err != nil {
		return fmt.Errorf("Failed to insert into frame:\n%w", err)
	}
	return nil
}

// Record stores f in its own transaction, filling in the UUID and creation
// time when they are unset.
func (r *FrameRepository) Record(ctx context.Context, f *Frame) error {
	if f.Uuid == uuid.Nil {
		f.Uuid = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	if f.Payload == nil {
		f.Payload = []byte{}
	}
	f.Size = len(f.Payload)
	return r.Transact(ctx, func(tx *sql.Tx) error {
		return r.Create(tx, f)
	})
}

func (r *FrameRepository) Get(ctx context.Context, u uuid.UUID) (*Frame, error) {
	row := r.Db.QueryRowContext(ctx, `
		SELECT id, uuid, source, mac, battery, location, row_width, created_at, payload
		FROM frame
		WHERE uuid = ?`, u.String())

	f, err := scanFrame(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("Failed to read frame:\n%w", err)
	}
	return f, nil
}

// List returns the most recent frames first, without their payloads.
func (r *FrameRepository) List(ctx context.Context, limit int) ([]Frame, error) {
	rows, err := r.Db.QueryContext(ctx, `
		SELECT id, uuid, source, mac, battery, location, row_width, created_at, length(payload)
		FROM frame
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Query execution failed:\n%w", err)
	}
	defer rows.Close()

	frames := []Frame{}
	for rows.Next() {
		var f Frame
		var uuidString string
		if err := rows.Scan(&f.Id, &uuidString, &f.Source, &f.Mac, &f.Battery, &f.Location, &f.RowWidth, &f.CreatedAt, &f.Size); err != nil {
			return nil, fmt.Errorf("Row scanning failed:\n%w", err)
		}
		if f.Uuid, err = uuid.Parse(uuidString); err != nil {
			return nil, fmt.Errorf("Frame %d has a malformed UUID:\n%w", f.Id, err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error iterating rows:\n%w", err)
	}

	return frames, nil
}

func scanFrame(scan func(dest ...any) error) (*Frame, error) {
	var f Frame
	var uuidString string
	if err := scan(&f.Id, &uuidString, &f.Source, &f.Mac, &f.Battery, &f.Location, &f.RowWidth, &f.CreatedAt, &f.Payload); err != nil {
		return nil, err
	}
	u, err := uuid.Parse(uuidString)
	if err != nil {
		return nil, fmt.Errorf("Frame %d has a malformed UUID:\n%w", f.Id, err)
	}
	f.Uuid = u
	f.Size = len(f.Payload)
	return &f, nil
}
