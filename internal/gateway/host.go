package gateway

import (
	"context"
	"fmt"

	"github.com/soyeahso/intentd/internal/domain"
	"github.com/soyeahso/intentd/internal/hooks"
)

var _ domain.SuggestionIndex = (*HostIndex)(nil)

// HostIndex is a suggestion index that hands each descriptor to the
// connected host clients as an intent.donated event.
type HostIndex struct {
	s *Server
}

// HostIndex returns a suggestion index backed by this server's host clients.
func (s *Server) HostIndex() *HostIndex {
	return &HostIndex{s: s}
}

// Submit delivers d to every connected host. It fails with ErrNoHost when
// no host is connected or none accepted the event.
func (h *HostIndex) Submit(_ context.Context, d domain.Descriptor) error {
	if h.s.clients.CountMode(ModeHost) == 0 {
		return ErrNoHost
	}
	sent := h.s.clients.BroadcastTo(ModeHost, EventIntentDonated, d, h.s.eventSeq.Add(1))
	if sent == 0 {
		return fmt.Errorf("delivering %s: %w", d.GroupID, ErrNoHost)
	}
	return nil
}

// forwardOutcomes relays donation hook events to app clients.
func (s *Server) forwardOutcomes() {
	if s.hooks == nil {
		return
	}
	relay := func(_ context.Context, p hooks.Payload) error {
		s.clients.BroadcastTo(ModeApp, EventDonationOutcome, p.Data, s.eventSeq.Add(1))
		return nil
	}
	for _, event := range []string{
		hooks.EventDonationSubmitted,
		hooks.EventDonationSkipped,
		hooks.EventDonationFailed,
	} {
		s.hooks.On(event, "gateway.outcomes", relay)
	}
}
