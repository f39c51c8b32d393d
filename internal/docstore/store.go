package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/driveauth/internal/config"
)

// Document is one named JSON blob inside a container. Version is opaque and only
// meaningful to the provider that returned it.
type Document struct {
	Name    string
	Data    []byte
	Version string
}

type Page struct {
	Names         []string
	NextPageToken string
}

// Store gives key-value access to the documents of a single container
// (folder, directory or key prefix depending on the provider).
//
// Update only succeeds when version still matches the stored document,
// otherwise it fails with ErrConflict. Create fails with ErrConflict when the
// name is taken.
type Store interface {
	Get(ctx context.Context, name string) (*Document, error)
	Create(ctx context.Context, name string, data []byte) (*Document, error)
	Update(ctx context.Context, name string, data []byte, version string) (*Document, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, pageToken string) (*Page, error)
}

type Factory func(args interface{}, container string) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.DocStoreConfig, container string) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("doc_store.type is required")
	}
	if strings.TrimSpace(container) == "" {
		return nil, fmt.Errorf("doc_store container is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported doc store type: %s", cfg.Type)
	}
	store, err := factory(cfg.Data, container)
	if err != nil {
		return nil, err
	}
	return WithTimeout(store, cfg.Timeout()), nil
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}

func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.Contains(name, "/") && !strings.Contains(name, "\\")
}
