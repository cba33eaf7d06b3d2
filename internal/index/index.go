// Package index provides suggestion index implementations that donations
// are submitted to.
package index

import (
	"context"
	"errors"
	"time"

	"github.com/soyeahso/intentd/internal/domain"
)

// ErrNotPermitted is returned by an index the user has switched off.
var ErrNotPermitted = errors.New("suggestion index: donations not permitted")

// Entry is a stored donation. Repeated submissions for the same group
// refresh DonatedAt and bump Count.
type Entry struct {
	Descriptor domain.Descriptor `json:"descriptor"`
	DonatedAt  time.Time         `json:"donatedAt"`
	Count      int64             `json:"count"`
}

// Forgetter is implemented by indexes that can drop a group's donations,
// e.g. after the conversation was deleted.
type Forgetter interface {
	Forget(ctx context.Context, groupID string) error
}

// Disabled rejects every submission.
type Disabled struct{}

func (Disabled) Submit(context.Context, domain.Descriptor) error { return ErrNotPermitted }
