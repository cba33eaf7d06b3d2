package domain

// Recipient is a conversation counterpart listed on a descriptor.
type Recipient struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Descriptor is the normalized "send a message to this conversation"
// interaction handed to a suggestion index. Content is always empty.
type Descriptor struct {
	GroupID       string      `json:"groupId"`
	AccountID     string      `json:"accountId"`
	Token         string      `json:"token"`
	Sender        Recipient   `json:"sender"`
	Recipients    []Recipient `json:"recipients"`
	SpeakableName string      `json:"speakableName"`
	Group         bool        `json:"group"`
	Content       string      `json:"content"`
}
