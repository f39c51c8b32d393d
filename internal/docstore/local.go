package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

const localPageSize = 500

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

// Writes are serialized per file across every localStore in the process.
var localLocks = newKeyedMutex()

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}, container string) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if !validName(container) {
		return nil, fmt.Errorf("invalid local container %q", container)
	}
	return &localStore{dir: filepath.Join(config.Dir, container)}, nil
}

func (s *localStore) path(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid document name %q: %w", name, appErr.ErrInvalid)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *localStore) Get(ctx context.Context, name string) (*Document, error) {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &Document{Name: name, Data: data, Version: contentVersion(data)}, nil
}

func (s *localStore) Create(ctx context.Context, name string, data []byte) (*Document, error) {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	unlock := localLocks.lock(path)
	defer unlock()
	if _, err := os.Stat(path); err == nil {
		return nil, appErr.ErrConflict
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	if err := writeAtomicFile(path, data); err != nil {
		return nil, err
	}
	return &Document{Name: name, Data: data, Version: contentVersion(data)}, nil
}

func (s *localStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	unlock := localLocks.lock(path)
	defer unlock()
	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if contentVersion(current) != version {
		return nil, appErr.ErrConflict
	}
	if err := writeAtomicFile(path, data); err != nil {
		return nil, err
	}
	return &Document{Name: name, Data: data, Version: contentVersion(data)}, nil
}

func (s *localStore) Delete(ctx context.Context, name string) error {
	_ = ctx
	path, err := s.path(name)
	if err != nil {
		return err
	}
	unlock := localLocks.lock(path)
	defer unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return appErr.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *localStore) List(ctx context.Context, pageToken string) (*Page, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Page{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return paginate(names, pageToken, localPageSize), nil
}

// writeAtomicFile writes data to a temp file in the target directory and renames it into place.
func writeAtomicFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
