package walletstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paperwall/paperwall-agent/interfaces"
)

// FileStore persists the wallet document as a single JSON file with
// owner-read-write permissions.
type FileStore struct {
	path string
	log  *slog.Logger
}

// NewFileStore creates a file-backed store at path, creating parent
// directories as needed.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create wallet directory: %w", err)
	}
	return &FileStore{path: path, log: log}, nil
}

// Load reads and decodes the wallet document.
func (s *FileStore) Load(_ context.Context) (*interfaces.WalletDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrWalletNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read wallet file: %w", err)
	}

	var doc interfaces.WalletDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse wallet file %s: %w", s.path, err)
	}
	return &doc, nil
}

// Save writes the wallet document wholesale. The write goes to a temporary
// file first so a crash cannot leave a truncated wallet behind.
func (s *FileStore) Save(_ context.Context, doc *interfaces.WalletDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode wallet document: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	// The document must hit disk before it replaces the previous wallet.
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync wallet file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace wallet file: %w", err)
	}

	s.log.Debug("Stored wallet document", slog.String("path", s.path))
	return nil
}

// Available reports whether the wallet directory exists.
func (s *FileStore) Available(_ context.Context) bool {
	_, err := os.Stat(filepath.Dir(s.path))
	return err == nil
}

// LocationURI identifies this store.
func (s *FileStore) LocationURI() string {
	return fmt.Sprintf("file://%s", s.path)
}
