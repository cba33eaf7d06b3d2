package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/soyeahso/intentd/internal/domain"
)

// MemoryStore is an in-process Repository. Stored and returned
// conversations are copies, so callers never share participant slices.
type MemoryStore struct {
	mu            sync.RWMutex
	accounts      map[string]domain.Account
	conversations map[string]map[string]domain.Conversation // account → token → conversation
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:      make(map[string]domain.Account),
		conversations: make(map[string]map[string]domain.Conversation),
	}
}

// FindConversation returns a copy of the stored conversation.
func (m *MemoryStore) FindConversation(_ context.Context, token, accountID string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	conv, ok := m.conversations[accountID][token]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrConversationNotFound, accountID, token)
	}

	conv = cloneConversation(conv)
	conv.UserID = acct.UserID
	return &conv, nil
}

// SaveAccount inserts or replaces an account.
func (m *MemoryStore) SaveAccount(_ context.Context, acct domain.Account) error {
	if err := validateAccount(acct); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.ID] = acct
	return nil
}

// ListAccounts returns all accounts ordered by ID.
func (m *MemoryStore) ListAccounts(_ context.Context) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveConversation inserts or replaces a conversation. The account must exist.
func (m *MemoryStore) SaveConversation(_ context.Context, conv domain.Conversation) error {
	if err := validateConversation(conv); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[conv.AccountID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, conv.AccountID)
	}
	byToken, ok := m.conversations[conv.AccountID]
	if !ok {
		byToken = make(map[string]domain.Conversation)
		m.conversations[conv.AccountID] = byToken
	}

	conv = cloneConversation(conv)
	conv.UserID = ""
	conv.Kind = kindOrDefault(conv.Kind)
	byToken[conv.Token] = conv
	return nil
}

// ListConversations returns all conversations of an account ordered by token.
func (m *MemoryStore) ListConversations(_ context.Context, accountID string) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}

	var out []domain.Conversation
	for _, c := range m.conversations[accountID] {
		c = cloneConversation(c)
		c.UserID = acct.UserID
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// DeleteConversation removes a conversation.
func (m *MemoryStore) DeleteConversation(_ context.Context, token, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[accountID][token]; !ok {
		return fmt.Errorf("%w: %s/%s", domain.ErrConversationNotFound, accountID, token)
	}
	delete(m.conversations[accountID], token)
	return nil
}

func cloneConversation(c domain.Conversation) domain.Conversation {
	c.Participants = slices.Clone(c.Participants)
	if c.Participants == nil {
		c.Participants = []domain.Participant{}
	}
	return c
}
