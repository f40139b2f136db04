package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

// MemoryKeyStore is an in-memory domain.KeyRepository for development mode
// and tests. A single mutex makes every operation, including the
// check-allocate-insert sequence, atomic.
type MemoryKeyStore struct {
	mu   sync.Mutex
	keys map[string]*domain.SSHKey // keyed by username + "\x00" + label
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]*domain.SSHKey)}
}

var _ domain.KeyRepository = (*MemoryKeyStore)(nil)

func memKey(username, label string) string { return username + "\x00" + label }

func (s *MemoryKeyStore) FindByPublicKey(_ context.Context, publicKey string) (*domain.SSHKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.keys {
		if key.PublicKey == publicKey {
			cp := *key
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *MemoryKeyStore) FindByUserAndLabel(_ context.Context, username, label string) (*domain.SSHKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[memKey(username, label)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *key
	return &cp, nil
}

func (s *MemoryKeyStore) ListByUser(_ context.Context, username string) ([]*domain.SSHKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]*domain.SSHKey, 0, 8)
	for _, key := range s.keys {
		if key.Username == username {
			cp := *key
			keys = append(keys, &cp)
		}
	}
	return keys, nil
}

func (s *MemoryKeyStore) InsertIfAbsent(_ context.Context, key *domain.SSHKey, maxKeys int) (*domain.SSHKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var labels []string
	count := 0
	for _, existing := range s.keys {
		if existing.PublicKey == key.PublicKey {
			return nil, apperrors.ErrDuplicateKey
		}
		if existing.Username == key.Username {
			count++
			labels = append(labels, existing.Label)
		}
	}
	if maxKeys > 0 && count >= maxKeys {
		return nil, fmt.Errorf("%w (=%d), cannot add more", apperrors.ErrQuotaExceeded, maxKeys)
	}

	stored := *key
	if stored.Label == "" {
		stored.Label = domain.NextLabel(labels)
	}
	if _, ok := s.keys[memKey(stored.Username, stored.Label)]; ok {
		return nil, apperrors.ErrDuplicateKey
	}
	s.keys[memKey(stored.Username, stored.Label)] = &stored
	cp := stored
	return &cp, nil
}

func (s *MemoryKeyStore) Update(_ context.Context, key *domain.SSHKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.keys[memKey(key.Username, key.Label)]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, other := range s.keys {
		if other != existing && other.PublicKey == key.PublicKey {
			return apperrors.ErrDuplicateKey
		}
	}
	cp := *key
	s.keys[memKey(key.Username, key.Label)] = &cp
	return nil
}

func (s *MemoryKeyStore) Delete(_ context.Context, username, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[memKey(username, label)]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.keys, memKey(username, label))
	return nil
}

// MemoryTransactionStore is an in-memory domain.TransactionStore. Put is for
// seeding; the serving path is read-only like the SQL adapter.
type MemoryTransactionStore struct {
	mu           sync.RWMutex
	transactions map[domain.AccessToken]*domain.Transaction
}

func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{transactions: make(map[domain.AccessToken]*domain.Transaction)}
}

var _ domain.TransactionStore = (*MemoryTransactionStore)(nil)

func (s *MemoryTransactionStore) Put(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.Token] = t
}

func (s *MemoryTransactionStore) Get(_ context.Context, token domain.AccessToken) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// MemoryClientStore is an in-memory domain.ClientStore.
type MemoryClientStore struct {
	mu      sync.RWMutex
	clients map[string]*domain.Client
}

func NewMemoryClientStore() *MemoryClientStore {
	return &MemoryClientStore{clients: make(map[string]*domain.Client)}
}

var _ domain.ClientStore = (*MemoryClientStore)(nil)

func (s *MemoryClientStore) Put(c *domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *MemoryClientStore) Get(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
