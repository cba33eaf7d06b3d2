package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/soyeahso/intentd/internal/logging"
)

// Notification is the payload of a push notification about a room.
type Notification struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
}

// ParseNotification decodes and checks a notification payload.
func ParseNotification(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("decoding notification: %w", err)
	}
	if n.Token == "" || n.AccountID == "" {
		return Notification{}, fmt.Errorf("notification needs token and accountId")
	}
	return n, nil
}

// RoomDonor donates a room identified by token and account.
type RoomDonor interface {
	DonateRoom(ctx context.Context, token, accountID string)
}

// DonationHandler donates the room every notification refers to.
type DonationHandler struct {
	donor RoomDonor
	log   *logging.Logger
}

// NewDonationHandler creates a handler feeding donor.
func NewDonationHandler(donor RoomDonor, log *logging.Logger) *DonationHandler {
	return &DonationHandler{donor: donor, log: log.Sub("notify")}
}

// Handle never fails. Malformed payloads are logged and consumed so they
// are not redelivered.
func (h *DonationHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	n, err := ParseNotification(msg.Value)
	if err != nil {
		h.log.Warn().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("dropping malformed notification")
		return nil
	}

	h.log.Debug().Str("account", n.AccountID).Str("token", n.Token).Msg("notification received")
	h.donor.DonateRoom(ctx, n.Token, n.AccountID)
	return nil
}
