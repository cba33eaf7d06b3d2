// Package intent builds suggestion descriptors from conversations.
package intent

import (
	"fmt"
	"strings"

	"github.com/soyeahso/intentd/internal/domain"
)

// groupSeparator joins account and token in a group identifier. Tokens never
// contain ':' so the last separator is always the boundary.
const groupSeparator = "::"

// DefaultMaxSpokenNames is the number of recipient names spoken for an
// unnamed conversation before the rest are summarized.
const DefaultMaxSpokenNames = 3

// GroupID returns the identifier that ties all donations for one
// conversation on one account together.
func GroupID(accountID, token string) string {
	return accountID + groupSeparator + token
}

// ParseGroupID splits a group identifier back into account and token.
func ParseGroupID(groupID string) (accountID, token string, ok bool) {
	i := strings.LastIndex(groupID, groupSeparator)
	if i < 0 {
		return "", "", false
	}
	return groupID[:i], groupID[i+len(groupSeparator):], true
}

// Builder turns conversations into descriptors. The zero value is usable.
type Builder struct {
	MaxSpokenNames int
}

var defaultBuilder = Builder{MaxSpokenNames: DefaultMaxSpokenNames}

// Build maps a conversation to a descriptor using default settings.
func Build(conv domain.Conversation) domain.Descriptor {
	return defaultBuilder.Build(conv)
}

// Build maps a conversation to a descriptor. It does not validate its input;
// callers check token and participants first.
func (b Builder) Build(conv domain.Conversation) domain.Descriptor {
	self := conv.Self()
	recipients := Recipients(conv)

	return domain.Descriptor{
		GroupID:       GroupID(conv.AccountID, conv.Token),
		AccountID:     conv.AccountID,
		Token:         conv.Token,
		Sender:        domain.Recipient{ID: self.ID, DisplayName: self.Name()},
		Recipients:    recipients,
		SpeakableName: b.speakableName(conv, self, recipients),
		Group:         conv.Kind.IsGroup(),
		Content:       "",
	}
}

// Recipients lists every participant except the acting user, in order.
// Conversations that are not groups have at most one counterpart, the first.
func Recipients(conv domain.Conversation) []domain.Recipient {
	self := conv.SelfID()
	out := make([]domain.Recipient, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p.ID == self {
			continue
		}
		out = append(out, domain.Recipient{ID: p.ID, DisplayName: p.Name()})
		if !conv.Kind.IsGroup() {
			break
		}
	}
	return out
}

func (b Builder) speakableName(conv domain.Conversation, self domain.Participant, recipients []domain.Recipient) string {
	if name := strings.TrimSpace(conv.DisplayName); name != "" {
		return name
	}

	if len(recipients) == 0 {
		// note to self
		if name := strings.TrimSpace(self.DisplayName); name != "" {
			return name
		}
		return ""
	}

	limit := b.MaxSpokenNames
	if limit <= 0 {
		limit = DefaultMaxSpokenNames
	}

	n := min(limit, len(recipients))
	names := make([]string, 0, n)
	for _, r := range recipients[:n] {
		names = append(names, r.DisplayName)
	}

	name := strings.Join(names, ", ")
	if rest := len(recipients) - n; rest > 0 {
		name += fmt.Sprintf(" and %d more", rest)
	}
	return name
}
