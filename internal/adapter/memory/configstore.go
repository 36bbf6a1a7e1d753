package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/port/configstore"
)

// ConfigStore keeps the document JSON-encoded so callers never share slices
// with the stored copy.
type ConfigStore struct {
	mu       sync.RWMutex
	value    []byte
	revision uint64
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

func (s *ConfigStore) Load(_ context.Context) (domainrole.UserConfig, bool, error) {
	s.mu.RLock()
	value, rev := s.value, s.revision
	s.mu.RUnlock()

	if value == nil {
		return domainrole.UserConfig{}, false, nil
	}
	var doc domainrole.UserConfig
	if err := json.Unmarshal(value, &doc); err != nil {
		return domainrole.UserConfig{}, false, fmt.Errorf("decode config: %w", err)
	}
	doc.Revision = rev
	return doc, true, nil
}

func (s *ConfigStore) Save(_ context.Context, doc domainrole.UserConfig) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Revision != s.revision {
		return 0, configstore.ErrConflict
	}
	doc.Revision = s.revision + 1
	value, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode config: %w", err)
	}
	s.value = value
	s.revision = doc.Revision
	return s.revision, nil
}
