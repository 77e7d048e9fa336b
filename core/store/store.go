package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adalundhe/patina/core/dtm"
	"github.com/adalundhe/patina/core/genui"
	"github.com/adalundhe/patina/core/taste"
)

// Store combines the blob store and the SQLite index into the typed
// persistence surface the pipeline and CLI use.
type Store struct {
	blobs  *BlobStore
	index  *Index
	logger *slog.Logger
}

// Open sets up a store rooted at the standard data directory.
func Open(dirs *Dirs, logger *slog.Logger) (*Store, error) {
	if err := dirs.EnsureAll(); err != nil {
		return nil, fmt.Errorf("preparing data dirs: %w", err)
	}
	return OpenAt(dirs.BlobDir(), dirs.IndexPath(), logger)
}

// OpenAt sets up a store with explicit blob and index locations.
func OpenAt(blobRoot, indexPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	blobs, err := NewBlobStore(blobRoot)
	if err != nil {
		return nil, err
	}
	index, err := OpenIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return &Store{blobs: blobs, index: index, logger: logger}, nil
}

// Close releases the index database.
func (s *Store) Close() error {
	return s.index.Close()
}

// SaveDTR persists a DTR blob and indexes it by fingerprint and resource.
// Returns the DTR's fingerprint.
func (s *Store) SaveDTR(ctx context.Context, d *taste.DTR) (string, error) {
	if err := taste.ValidateDTR(d); err != nil {
		return "", err
	}

	blobHash, err := s.blobs.Put(d)
	if err != nil {
		return "", err
	}
	if err := s.index.SaveResource(ctx, ResourceRecord{
		Hash:      d.Resource.Hash,
		Name:      d.Resource.Name,
		Kind:      string(d.Resource.Kind),
		CreatedAt: d.Provenance.ExtractedAt,
	}); err != nil {
		return "", err
	}

	fingerprint := dtm.Fingerprint(d)
	if err := s.index.SaveDTR(ctx, DTRRecord{
		Fingerprint:   fingerprint,
		ResourceHash:  d.Resource.Hash,
		BlobHash:      blobHash,
		PromptVersion: d.Provenance.PromptVersion,
		CreatedAt:     d.Provenance.ExtractedAt,
	}); err != nil {
		return "", err
	}

	s.logger.Debug("dtr saved", "resource", d.Resource.Name, "fingerprint", fingerprint)
	return fingerprint, nil
}

// LoadDTR loads a DTR by fingerprint.
func (s *Store) LoadDTR(ctx context.Context, fingerprint string) (*taste.DTR, error) {
	record, err := s.index.DTRByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	var d taste.DTR
	if err := s.blobs.GetInto(record.BlobHash, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadLatestDTR loads the newest DTR extracted from a resource hash.
func (s *Store) LoadLatestDTR(ctx context.Context, resourceHash string) (*taste.DTR, error) {
	record, err := s.index.LatestDTRForResource(ctx, resourceHash)
	if err != nil {
		return nil, err
	}
	var d taste.DTR
	if err := s.blobs.GetInto(record.BlobHash, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDTM persists a model blob and indexes it by id and fingerprint set.
func (s *Store) SaveDTM(ctx context.Context, m *taste.DTM) error {
	if err := taste.ValidateDTM(m); err != nil {
		return err
	}
	blobHash, err := s.blobs.Put(m)
	if err != nil {
		return err
	}
	if err := s.index.SaveDTM(ctx, DTMRecord{
		ID:             m.ID,
		FingerprintSet: JoinFingerprints(m.Fingerprints),
		BlobHash:       blobHash,
		CreatedAt:      m.CreatedAt,
	}); err != nil {
		return err
	}
	s.logger.Debug("dtm saved", "id", m.ID, "resources", len(m.Fingerprints))
	return nil
}

// LoadDTM loads a model by id. A prefix of the id is accepted when it is
// unambiguous, matching the CLI habit of short ids.
func (s *Store) LoadDTM(ctx context.Context, id string) (*taste.DTM, error) {
	record, err := s.index.DTM(ctx, id)
	if err != nil {
		record, err = s.resolveDTMPrefix(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	var m taste.DTM
	if err := s.blobs.GetInto(record.BlobHash, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) resolveDTMPrefix(ctx context.Context, prefix string) (*DTMRecord, error) {
	records, err := s.index.ListDTMs(ctx)
	if err != nil {
		return nil, err
	}
	var match *DTMRecord
	for i := range records {
		if strings.HasPrefix(records[i].ID, prefix) {
			if match != nil {
				return nil, fmt.Errorf("dtm id %q is ambiguous", prefix)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("dtm %s: %w", prefix, ErrNotFound)
	}
	return match, nil
}

// LoadDTMByFingerprints loads the model built from an exact fingerprint set,
// if one exists.
func (s *Store) LoadDTMByFingerprints(ctx context.Context, fingerprints []string) (*taste.DTM, error) {
	record, err := s.index.DTMByFingerprintSet(ctx, fingerprints)
	if err != nil {
		return nil, err
	}
	var m taste.DTM
	if err := s.blobs.GetInto(record.BlobHash, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveRun persists a generation artifact and indexes the run. Returns the
// run id.
func (s *Store) SaveRun(ctx context.Context, dtmID, component string, artifact *genui.Artifact) (string, error) {
	blobHash, err := s.blobs.Put(artifact)
	if err != nil {
		return "", err
	}
	id := "run_" + strings.Split(uuid.NewString(), "-")[0]
	if err := s.index.SaveRun(ctx, RunRecord{
		ID:        id,
		DTMID:     dtmID,
		Component: component,
		Target:    string(artifact.Target),
		BlobHash:  blobHash,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}
	return id, nil
}

// ListResources returns the indexed resources, newest first.
func (s *Store) ListResources(ctx context.Context) ([]ResourceRecord, error) {
	return s.index.ListResources(ctx)
}

// ListDTMs returns the indexed models, newest first.
func (s *Store) ListDTMs(ctx context.Context) ([]DTMRecord, error) {
	return s.index.ListDTMs(ctx)
}
