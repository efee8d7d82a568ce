package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createRecords = `CREATE TABLE IF NOT EXISTS records (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteKV keeps records in a single SQLite table. Batches are written in one
// transaction.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens or creates the database at path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if _, err := db.Exec(createRecords); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteKV) NewBatch() Batch {
	return &sqliteBatch{db: s.db}
}

type sqliteBatch struct {
	db  *sql.DB
	ops []batchOp
}

func (b *sqliteBatch) Put(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, batchOp{key: string(key), value: v})
}

func (b *sqliteBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: string(key), delete: true})
}

func (b *sqliteBatch) Write() (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, op := range b.ops {
		if op.delete {
			_, err = tx.Exec("DELETE FROM records WHERE key = ?", []byte(op.key))
		} else {
			_, err = tx.Exec("INSERT INTO records (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", []byte(op.key), op.value)
		}
		if err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	b.ops = nil
	return nil
}
