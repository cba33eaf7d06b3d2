// Package donation decides when a conversation is worth donating to the
// suggestion index and submits the descriptor for it.
package donation

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/soyeahso/intentd/internal/domain"
	"github.com/soyeahso/intentd/internal/hooks"
	"github.com/soyeahso/intentd/internal/intent"
	"github.com/soyeahso/intentd/internal/logging"
	"github.com/soyeahso/intentd/internal/metrics"
)

var tracer = otel.Tracer("intentd.internal.donation")

// Outcome is how a donation attempt ended.
type Outcome string

const (
	OutcomeSubmitted     Outcome = "submitted"
	OutcomeThrottled     Outcome = "throttled"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeResolveFailed Outcome = "resolve_failed"
	OutcomeSubmitFailed  Outcome = "submit_failed"
)

// Request sources, used as metric labels.
const (
	SourceConversation = "conversation"
	SourceRoom         = "room"
)

// Service is the donation gateway. Both entry points return immediately;
// the work runs on its own goroutine and never reports back to the caller.
type Service struct {
	store    domain.ConversationStore
	index    domain.SuggestionIndex
	builder  intent.Builder
	log      *logging.Logger
	metrics  *metrics.DonationMetrics
	hooks    *hooks.Manager
	throttle *throttle
	lookups  singleflight.Group

	mu     sync.Mutex
	closed bool
	tasks  sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records attempts and outcomes.
func WithMetrics(m *metrics.DonationMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHooks emits a hook event for every finished attempt.
func WithHooks(h *hooks.Manager) Option {
	return func(s *Service) { s.hooks = h }
}

// WithBuilder replaces the default descriptor builder.
func WithBuilder(b intent.Builder) Option {
	return func(s *Service) { s.builder = b }
}

// WithThrottle skips donations for a group that was donated less than
// window ago. Zero disables throttling.
func WithThrottle(window time.Duration) Option {
	return func(s *Service) { s.throttle = newThrottle(window, time.Now) }
}

// New creates a donation service. store may be nil when only Donate is used.
func New(store domain.ConversationStore, index domain.SuggestionIndex, log *logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		index:    index,
		builder:  intent.Builder{MaxSpokenNames: intent.DefaultMaxSpokenNames},
		log:      log.Sub("donation"),
		throttle: newThrottle(0, time.Now),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Donate submits a descriptor for an already resolved conversation.
func (s *Service) Donate(ctx context.Context, conv domain.Conversation) {
	conv.Participants = slices.Clone(conv.Participants)
	s.metrics.ObserveRequest(SourceConversation)
	s.spawn(ctx, func(ctx context.Context) {
		s.donate(ctx, conv)
	})
}

// DonateRoom resolves a conversation by token and account, then donates it.
// Unknown conversations and accounts are skipped silently.
func (s *Service) DonateRoom(ctx context.Context, token, accountID string) {
	s.metrics.ObserveRequest(SourceRoom)
	s.spawn(ctx, func(ctx context.Context) {
		conv, err := s.resolve(ctx, token, accountID)
		if err != nil {
			outcome := OutcomeResolveFailed
			if domain.IsNotFound(err) {
				outcome = OutcomeNotFound
			}
			s.record(ctx, nil, result{
				outcome: outcome, accountID: accountID, token: token, err: err,
			})
			return
		}
		s.donate(ctx, *conv)
	})
}

// Wait blocks until every donation started so far has finished.
func (s *Service) Wait() {
	s.tasks.Wait()
}

// Close stops accepting donations and waits for running ones.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.tasks.Wait()
}

func (s *Service) spawn(ctx context.Context, fn func(context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Debug().Msg("donation dropped, service closed")
		return
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	// The caller may cancel as soon as we return.
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer s.tasks.Done()
		defer s.metrics.TrackInflight()()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("donation task panicked")
			}
		}()
		fn(ctx)
	}()
}

func (s *Service) resolve(ctx context.Context, token, accountID string) (*domain.Conversation, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no conversation store configured")
	}
	v, err, shared := s.lookups.Do(accountID+"\x00"+token, func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("conversation store panicked: %v", r)
			}
		}()
		return s.store.FindConversation(ctx, token, accountID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Trace().Str("account", accountID).Str("token", token).Msg("lookup shared")
	}
	conv, _ := v.(*domain.Conversation)
	if conv == nil {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrConversationNotFound, accountID, token)
	}
	return conv, nil
}

// submit hands d to the index. A panicking index counts as a failed submit.
func (s *Service) submit(ctx context.Context, d domain.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("suggestion index panicked: %v", r)
		}
	}()
	return s.index.Submit(ctx, d)
}

func (s *Service) donate(ctx context.Context, conv domain.Conversation) {
	ctx, span := tracer.Start(ctx, "donation.donate")
	defer span.End()
	span.SetAttributes(
		attribute.String("intentd.account_id", conv.AccountID),
		attribute.String("intentd.token", conv.Token),
	)

	res := result{accountID: conv.AccountID, token: conv.Token}
	if err := Validate(conv); err != nil {
		res.outcome, res.err = OutcomeInvalid, err
		s.record(ctx, span, res)
		return
	}

	d := s.builder.Build(conv)
	res.groupID = d.GroupID
	span.SetAttributes(
		attribute.String("intentd.group_id", d.GroupID),
		attribute.Int("intentd.recipients", len(d.Recipients)),
	)

	claim, ok := s.throttle.reserve(d.GroupID)
	if !ok {
		res.outcome = OutcomeThrottled
		s.record(ctx, span, res)
		return
	}

	start := time.Now()
	err := s.submit(ctx, d)
	s.metrics.ObserveSubmit(time.Since(start), err)
	if err != nil {
		s.throttle.release(d.GroupID, claim)
		res.outcome, res.err = OutcomeSubmitFailed, err
		s.record(ctx, span, res)
		return
	}

	res.outcome = OutcomeSubmitted
	s.record(ctx, span, res)
}

// Validate reports why a conversation cannot be donated, or nil.
func Validate(conv domain.Conversation) error {
	switch {
	case conv.Token == "":
		return fmt.Errorf("conversation has no token")
	case !domain.ValidToken(conv.Token):
		return fmt.Errorf("malformed token %q", conv.Token)
	case !domain.ValidAccountID(conv.AccountID):
		return fmt.Errorf("malformed account id %q", conv.AccountID)
	case len(conv.Participants) == 0:
		return fmt.Errorf("conversation %s has no participants", conv.Token)
	}
	return nil
}

type result struct {
	outcome   Outcome
	accountID string
	token     string
	groupID   string
	err       error
}

func (s *Service) record(ctx context.Context, span trace.Span, r result) {
	s.metrics.ObserveOutcome(string(r.outcome))

	var evt *zerolog.Event
	switch r.outcome {
	case OutcomeInvalid, OutcomeResolveFailed, OutcomeSubmitFailed:
		evt = s.log.Warn()
	default:
		evt = s.log.Debug()
	}
	evt = evt.Str("outcome", string(r.outcome)).
		Str("account", r.accountID).
		Str("token", r.token)
	if r.groupID != "" {
		evt = evt.Str("groupId", r.groupID)
	}
	if r.err != nil {
		evt = evt.Err(r.err)
	}
	evt.Msg("donation finished")

	if span != nil {
		span.SetAttributes(attribute.String("intentd.outcome", string(r.outcome)))
		if r.err != nil && r.outcome != OutcomeNotFound {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, string(r.outcome))
		}
	}

	data := map[string]any{
		"outcome":   string(r.outcome),
		"accountId": r.accountID,
		"token":     r.token,
	}
	if r.groupID != "" {
		data["groupId"] = r.groupID
	}
	if r.err != nil {
		data["error"] = r.err.Error()
	}
	s.hooks.Emit(ctx, hookEvent(r.outcome), data)
}

func hookEvent(o Outcome) string {
	switch o {
	case OutcomeSubmitted:
		return hooks.EventDonationSubmitted
	case OutcomeResolveFailed, OutcomeSubmitFailed:
		return hooks.EventDonationFailed
	default:
		return hooks.EventDonationSkipped
	}
}
