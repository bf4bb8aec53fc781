// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entity types sightline mints IDs for.
const (
	EventPrefix = "ev-"
	MemoPrefix  = "mm-"
)

// Alphabet defines the character set used for the random portion of the ID.
// No dots: IDs are embedded in NATS subjects, where "." is a separator.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// NewEventID returns a new unique feed event ID.
func NewEventID() (string, error) {
	return generate(EventPrefix)
}

// NewMemoID returns a new unique memo ID.
func NewMemoID() (string, error) {
	return generate(MemoPrefix)
}

func generate(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
