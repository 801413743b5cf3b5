// Package jsonfile stores the ledger as a single indented JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"carbon/internal/core"
	"carbon/internal/log"
	"carbon/internal/observability"
)

// FileName is the document name inside the data directory.
const FileName = "data.json"

// Store reads and writes one JSON file. Writers are not serialized; the last
// successful Save wins.
type Store struct {
	path   string
	logger *log.Logger
}

// New returns a store for <dir>/data.json.
func New(dir string, logger *log.Logger) *Store {
	return NewAtPath(filepath.Join(dir, FileName), logger)
}

// NewAtPath returns a store for an explicit file path.
func NewAtPath(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{path: path, logger: logger.WithComponent(log.ComponentStorage)}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing file is the empty document; an
// unreadable or malformed one is logged and also reads as empty.
func (s *Store) Load(ctx context.Context) core.Document {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "Ledger file unreadable, using empty ledger",
				log.FieldFile, s.path, log.FieldError, err.Error())
			observability.RecordLoadFallback(observability.ReasonUnreadable)
		}
		return core.EmptyDocument()
	}

	var doc core.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.logger.WarnContext(ctx, "Ledger file malformed, using empty ledger",
			log.FieldFile, s.path, log.FieldError, err.Error())
		observability.RecordLoadFallback(observability.ReasonMalformed)
		return core.EmptyDocument()
	}
	return doc.Normalize()
}

// Save writes doc to a temporary sibling and renames it over the target, so
// readers see either the old or the new document in full.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	if err := s.save(doc.Normalize()); err != nil {
		s.logger.ErrorContext(ctx, "Ledger save failed",
			log.FieldFile, s.path, log.FieldError, err.Error(), log.FieldCount, len(doc.Activities))
		observability.RecordSaveFailure()
		return err
	}
	s.logger.DebugContext(ctx, "Ledger saved", log.FieldFile, s.path, log.FieldCount, len(doc.Activities))
	return nil
}

func (s *Store) save(doc core.Document) (err error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
