package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/driveauth/internal/config"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type Factory func(cfg config.MailConfig) (Sender, error)

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

func New(cfg config.MailConfig) (Sender, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("mail.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported mail type: %s", cfg.Type)
	}
	return factory(cfg)
}

func decodeData(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("mail config data is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode mail config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode mail config: %w", err)
	}
	return nil
}
