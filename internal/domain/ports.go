package domain

import (
	"context"
	"errors"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrAccountNotFound      = errors.New("account not found")
)

// ConversationStore resolves conversations by (token, account).
// Implementations return ErrConversationNotFound or ErrAccountNotFound
// (possibly wrapped) when nothing matches.
type ConversationStore interface {
	FindConversation(ctx context.Context, token, accountID string) (*Conversation, error)
}

// SuggestionIndex receives descriptors. Submitting a descriptor with an
// existing GroupID refreshes the earlier entry instead of adding one.
type SuggestionIndex interface {
	Submit(ctx context.Context, d Descriptor) error
}

// IsNotFound reports whether err means the conversation or its account
// does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound) || errors.Is(err, ErrAccountNotFound)
}
