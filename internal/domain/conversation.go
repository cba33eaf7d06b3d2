package domain

import "strings"

// ConversationKind classifies a conversation.
type ConversationKind string

const (
	KindOneToOne  ConversationKind = "one-to-one"
	KindGroup     ConversationKind = "group"
	KindPublic    ConversationKind = "public"
	KindChangelog ConversationKind = "changelog"
)

// IsGroup reports whether conversations of this kind have more than one
// counterpart. Public rooms behave like groups.
func (k ConversationKind) IsGroup() bool {
	return k == KindGroup || k == KindPublic
}

// Valid reports whether k is a known kind. The empty kind is accepted and
// treated as one-to-one.
func (k ConversationKind) Valid() bool {
	switch k {
	case "", KindOneToOne, KindGroup, KindPublic, KindChangelog:
		return true
	}
	return false
}

// Participant is a member of a conversation.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to the participant ID.
func (p Participant) Name() string {
	if n := strings.TrimSpace(p.DisplayName); n != "" {
		return n
	}
	return p.ID
}

// Conversation is a read-only snapshot of a chat room as seen by one account.
type Conversation struct {
	Token        string           `json:"token"`
	AccountID    string           `json:"accountId"`
	UserID       string           `json:"userId,omitempty"` // acting user's participant ID; defaults to AccountID
	DisplayName  string           `json:"displayName,omitempty"`
	Kind         ConversationKind `json:"kind,omitempty"`
	Participants []Participant    `json:"participants"`
}

// SelfID returns the participant ID of the acting user.
func (c Conversation) SelfID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.AccountID
}

// Self returns the acting user's participant entry. If the user is not in
// the participant list a participant carrying only the self ID is returned.
func (c Conversation) Self() Participant {
	self := c.SelfID()
	for _, p := range c.Participants {
		if p.ID == self {
			return p
		}
	}
	return Participant{ID: self}
}

// Key returns the (account, token) pair identifying the conversation.
func (c Conversation) Key() string {
	return c.AccountID + "/" + c.Token
}

// Account is a user account on a messaging server. Tokens are only unique
// within an account.
type Account struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Server      string `json:"server,omitempty"`
}

// ValidToken reports whether s is a well-formed conversation token.
func ValidToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// ValidAccountID reports whether s is a usable account identifier.
func ValidAccountID(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}
