package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/intentd/internal/domain"
)

// ErrInvalid is returned when a record cannot be stored as given.
var ErrInvalid = errors.New("invalid record")

// Repository is the read/write surface shared by the SQLite and memory
// stores. The donation service only needs FindConversation.
type Repository interface {
	domain.ConversationStore
	SaveAccount(ctx context.Context, acct domain.Account) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	SaveConversation(ctx context.Context, conv domain.Conversation) error
	ListConversations(ctx context.Context, accountID string) ([]domain.Conversation, error)
	DeleteConversation(ctx context.Context, token, accountID string) error
}

func validateAccount(a domain.Account) error {
	if !domain.ValidAccountID(a.ID) {
		return fmt.Errorf("%w: account id %q", ErrInvalid, a.ID)
	}
	if a.UserID == "" {
		return fmt.Errorf("%w: account %s has no user id", ErrInvalid, a.ID)
	}
	return nil
}

func validateConversation(c domain.Conversation) error {
	if !domain.ValidAccountID(c.AccountID) {
		return fmt.Errorf("%w: account id %q", ErrInvalid, c.AccountID)
	}
	if !domain.ValidToken(c.Token) {
		return fmt.Errorf("%w: token %q", ErrInvalid, c.Token)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", ErrInvalid, c.Kind)
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, p := range c.Participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant without id in %s", ErrInvalid, c.Token)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate participant %s in %s", ErrInvalid, p.ID, c.Token)
		}
		seen[p.ID] = true
	}
	return nil
}

func kindOrDefault(k domain.ConversationKind) domain.ConversationKind {
	if k == "" {
		return domain.KindOneToOne
	}
	return k
}
