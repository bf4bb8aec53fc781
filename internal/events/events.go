package events

import (
	"context"
	"fmt"

	"github.com/sightlinehq/sightline/internal/model"
)

// Push kinds carried on the channel.
const (
	KindCreated = "created"
	KindUpdated = "updated"
)

// Envelope is the wire shape of every push-channel message.
type Envelope struct {
	Event   string           `json:"event"` // "created" or "updated"
	Payload *model.FeedEvent `json:"payload"`
}

// Subjects are scoped per brand so a feed view subscribes only to its own
// tenant's traffic. The cross-tenant view subscribes to SubjectAll.
const (
	subjectRoot = "feed"

	// SubjectAll matches every feed event across all brands.
	SubjectAll = subjectRoot + ".>"
)

// CreatedSubject returns the subject events for newly created feed entries
// are published on for the given brand.
func CreatedSubject(brandID string) string {
	return fmt.Sprintf("%s.%s.%s", subjectRoot, brandID, KindCreated)
}

// UpdatedSubject returns the subject state updates are published on for the
// given brand.
func UpdatedSubject(brandID string) string {
	return fmt.Sprintf("%s.%s.%s", subjectRoot, brandID, KindUpdated)
}

// BrandSubject returns the wildcard subject covering both created and
// updated messages for one brand, or SubjectAll when brandID is empty.
func BrandSubject(brandID string) string {
	if brandID == "" {
		return SubjectAll
	}
	return fmt.Sprintf("%s.%s.>", subjectRoot, brandID)
}

// Publisher is the interface for emitting push-channel messages.
type Publisher interface {
	Publish(ctx context.Context, subject string, env *Envelope) error
	Close() error
}

// Message is a raw push-channel delivery: the subject it arrived on plus
// the JSON envelope bytes.
type Message struct {
	Subject string
	Data    []byte
}

// Subscriber receives push-channel messages.
type Subscriber interface {
	// Subscribe delivers messages for the given subject (wildcards allowed)
	// on the returned channel. Call the returned cancel function to
	// unsubscribe and close the channel.
	Subscribe(subject string) (<-chan Message, func(), error)
	Close() error
}
