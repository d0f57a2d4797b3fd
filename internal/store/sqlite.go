package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteFile is the database file name created inside the store directory.
const SQLiteFile = "index.db"

// SQLiteIndex implements Index backed by SQLite + sqlite-vec.
type SQLiteIndex struct {
	db   *sql.DB
	dims int
}

// OpenSQLite creates or opens the database in dir and initializes the schema.
func OpenSQLite(dir string, dims int) (*SQLiteIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("invalid dimensions %d", dims)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dbPath := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dims); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteIndex{db: db, dims: dims}, nil
}

// Add upserts documents by id. A replaced document gets a fresh embedding row.
func (s *SQLiteIndex) Add(ctx context.Context, ids, documents []string, embeddings [][]float32, metadatas []Metadata) error {
	if err := checkAdd(s.dims, ids, documents, embeddings, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range ids {
		meta, err := encodeValue(Sanitize(metadatas[i]))
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", id, err)
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", id, err)
		}

		var seq int64
		err = tx.QueryRowContext(ctx, "SELECT seq FROM records WHERE id = ?", id).Scan(&seq)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx,
				"INSERT INTO records (id, document, metadata) VALUES (?, ?, ?)",
				id, documents[i], meta,
			)
			if err != nil {
				return fmt.Errorf("insert %s: %w", id, err)
			}
			if seq, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Existing id: replace the document and drop its old vector.
			if _, err := tx.ExecContext(ctx,
				"UPDATE records SET document = ?, metadata = ?, indexed_at = CURRENT_TIMESTAMP WHERE seq = ?",
				documents[i], meta, seq,
			); err != nil {
				return fmt.Errorf("update %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM vec_records WHERE seq = ?", seq); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vec_records (seq, embedding) VALUES (?, ?)", seq, blob,
		); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) Get(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, document, metadata FROM records ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			raw string
		)
		if err := rows.Scan(&e.ID, &e.Document, &raw); err != nil {
			return nil, err
		}
		if e.Metadata, err = decodeMetadata(raw); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteIndex) Query(ctx context.Context, embedding []float32, n int) (QueryResult, error) {
	if n <= 0 {
		return QueryResult{}, fmt.Errorf("invalid result count %d", n)
	}
	if err := checkDims(s.dims, embedding); err != nil {
		return QueryResult{}, err
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return QueryResult{}, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, v.distance, r.document, r.metadata
		FROM (
			SELECT seq, distance FROM vec_records
			WHERE embedding MATCH ? AND k = ?
		) v
		JOIN records r ON r.seq = v.seq
		ORDER BY v.distance
	`, blob, n)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	out := EmptyResult()
	for rows.Next() {
		var (
			id, doc, raw string
			dist         float64
		)
		if err := rows.Scan(&id, &dist, &doc, &raw); err != nil {
			return QueryResult{}, err
		}
		meta, err := decodeMetadata(raw)
		if err != nil {
			return QueryResult{}, fmt.Errorf("decode metadata for %s: %w", id, err)
		}
		out.IDs[0] = append(out.IDs[0], id)
		out.Distances[0] = append(out.Distances[0], dist)
		out.Metadatas[0] = append(out.Metadatas[0], meta)
		out.Documents[0] = append(out.Documents[0], doc)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
