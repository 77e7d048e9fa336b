package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups that match no row.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	hash       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dtrs (
	fingerprint    TEXT PRIMARY KEY,
	resource_hash  TEXT NOT NULL,
	blob_hash      TEXT NOT NULL,
	prompt_version TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dtrs_resource ON dtrs(resource_hash);

CREATE TABLE IF NOT EXISTS dtms (
	id              TEXT PRIMARY KEY,
	fingerprint_set TEXT NOT NULL,
	blob_hash       TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dtms_fingerprint_set ON dtms(fingerprint_set);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	dtm_id     TEXT NOT NULL,
	component  TEXT NOT NULL,
	target     TEXT NOT NULL,
	blob_hash  TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_dtm ON runs(dtm_id);
`

// ResourceRecord is an indexed design resource.
type ResourceRecord struct {
	Hash      string
	Name      string
	Kind      string
	CreatedAt time.Time
}

// DTRRecord points a fingerprint at its DTR blob.
type DTRRecord struct {
	Fingerprint   string
	ResourceHash  string
	BlobHash      string
	PromptVersion string
	CreatedAt     time.Time
}

// DTMRecord points a model id at its DTM blob.
type DTMRecord struct {
	ID             string
	FingerprintSet string
	BlobHash       string
	CreatedAt      time.Time
}

// RunRecord records one generation run.
type RunRecord struct {
	ID        string
	DTMID     string
	Component string
	Target    string
	BlobHash  string
	CreatedAt time.Time
}

// Index is the SQLite lookup layer over blob content.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (and migrates) the index database at path. ":memory:" is
// accepted for tests.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// modernc's driver is not safe for concurrent writes on one connection
	// pool without WAL; a single connection sidesteps SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// SaveResource upserts a resource row.
func (ix *Index) SaveResource(ctx context.Context, r ResourceRecord) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO resources (hash, name, kind, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET name = excluded.name, kind = excluded.kind`,
		r.Hash, r.Name, r.Kind, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving resource %s: %w", r.Hash, err)
	}
	return nil
}

// SaveDTR upserts a DTR row.
func (ix *Index) SaveDTR(ctx context.Context, r DTRRecord) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO dtrs (fingerprint, resource_hash, blob_hash, prompt_version, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET blob_hash = excluded.blob_hash`,
		r.Fingerprint, r.ResourceHash, r.BlobHash, r.PromptVersion, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving dtr %s: %w", r.Fingerprint, err)
	}
	return nil
}

// SaveDTM upserts a DTM row.
func (ix *Index) SaveDTM(ctx context.Context, r DTMRecord) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO dtms (id, fingerprint_set, blob_hash, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET blob_hash = excluded.blob_hash`,
		r.ID, r.FingerprintSet, r.BlobHash, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving dtm %s: %w", r.ID, err)
	}
	return nil
}

// SaveRun inserts a generation run row.
func (ix *Index) SaveRun(ctx context.Context, r RunRecord) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO runs (id, dtm_id, component, target, blob_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.DTMID, r.Component, r.Target, r.BlobHash, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving run %s: %w", r.ID, err)
	}
	return nil
}

// Resource looks up a resource by hash.
func (ix *Index) Resource(ctx context.Context, hash string) (*ResourceRecord, error) {
	row := ix.db.QueryRowContext(ctx,
		`SELECT hash, name, kind, created_at FROM resources WHERE hash = ?`, hash)
	var r ResourceRecord
	var created string
	if err := row.Scan(&r.Hash, &r.Name, &r.Kind, &created); err != nil {
		return nil, wrapScanErr("resource", hash, err)
	}
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// LatestDTRForResource returns the newest DTR indexed for a resource hash.
func (ix *Index) LatestDTRForResource(ctx context.Context, resourceHash string) (*DTRRecord, error) {
	row := ix.db.QueryRowContext(ctx, `
		SELECT fingerprint, resource_hash, blob_hash, prompt_version, created_at
		FROM dtrs WHERE resource_hash = ? ORDER BY created_at DESC LIMIT 1`, resourceHash)
	return scanDTR(row, resourceHash)
}

// DTRByFingerprint looks up a DTR row.
func (ix *Index) DTRByFingerprint(ctx context.Context, fingerprint string) (*DTRRecord, error) {
	row := ix.db.QueryRowContext(ctx, `
		SELECT fingerprint, resource_hash, blob_hash, prompt_version, created_at
		FROM dtrs WHERE fingerprint = ?`, fingerprint)
	return scanDTR(row, fingerprint)
}

func scanDTR(row *sql.Row, key string) (*DTRRecord, error) {
	var r DTRRecord
	var created string
	if err := row.Scan(&r.Fingerprint, &r.ResourceHash, &r.BlobHash, &r.PromptVersion, &created); err != nil {
		return nil, wrapScanErr("dtr", key, err)
	}
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// DTM looks up a model row by id.
func (ix *Index) DTM(ctx context.Context, id string) (*DTMRecord, error) {
	row := ix.db.QueryRowContext(ctx,
		`SELECT id, fingerprint_set, blob_hash, created_at FROM dtms WHERE id = ?`, id)
	return scanDTM(row, id)
}

// DTMByFingerprintSet looks up the model built from an exact fingerprint set.
func (ix *Index) DTMByFingerprintSet(ctx context.Context, fingerprints []string) (*DTMRecord, error) {
	key := JoinFingerprints(fingerprints)
	row := ix.db.QueryRowContext(ctx, `
		SELECT id, fingerprint_set, blob_hash, created_at
		FROM dtms WHERE fingerprint_set = ? ORDER BY created_at DESC LIMIT 1`, key)
	return scanDTM(row, key)
}

func scanDTM(row *sql.Row, key string) (*DTMRecord, error) {
	var r DTMRecord
	var created string
	if err := row.Scan(&r.ID, &r.FingerprintSet, &r.BlobHash, &created); err != nil {
		return nil, wrapScanErr("dtm", key, err)
	}
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// ListResources returns all indexed resources, newest first.
func (ix *Index) ListResources(ctx context.Context) ([]ResourceRecord, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT hash, name, kind, created_at FROM resources ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var out []ResourceRecord
	for rows.Next() {
		var r ResourceRecord
		var created string
		if err := rows.Scan(&r.Hash, &r.Name, &r.Kind, &created); err != nil {
			return nil, fmt.Errorf("listing resources: %w", err)
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDTMs returns all indexed models, newest first.
func (ix *Index) ListDTMs(ctx context.Context) ([]DTMRecord, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, fingerprint_set, blob_hash, created_at FROM dtms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing dtms: %w", err)
	}
	defer rows.Close()

	var out []DTMRecord
	for rows.Next() {
		var r DTMRecord
		var created string
		if err := rows.Scan(&r.ID, &r.FingerprintSet, &r.BlobHash, &created); err != nil {
			return nil, fmt.Errorf("listing dtms: %w", err)
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// JoinFingerprints canonicalizes a sorted fingerprint set into its index key.
func JoinFingerprints(fingerprints []string) string {
	return strings.Join(fingerprints, ",")
}

func wrapScanErr(kind, key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
	}
	return fmt.Errorf("loading %s %s: %w", kind, key, err)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
