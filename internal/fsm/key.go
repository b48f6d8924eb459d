package fsm

import (
	"strconv"
	"strings"
)

// DefaultDestiny is the sentinel used when an update could not be mapped
// to any specific conversation.
const DefaultDestiny = "default"

// Key addresses one conversation's state row.
type Key struct {
	BotID   int64
	ChatID  int64
	UserID  int64
	Destiny string
}

// WithDefaults returns a copy of the key with an empty destiny replaced
// by the DefaultDestiny sentinel.
func (k Key) WithDefaults() Key {
	if k.Destiny == "" {
		k.Destiny = DefaultDestiny
	}
	return k
}

// KeyBuilder maps a Key to the opaque string used by a Storage.
// The mapping must be deterministic and collision-free: distinct keys
// must always produce distinct strings, stable across restarts.
type KeyBuilder interface {
	Build(k Key) string
}

type defaultKeyBuilder struct {
	prefix string
	sep    string
}

// NewKeyBuilder returns the canonical builder producing
// "fsm:<bot>:<chat>:<user>:<destiny>". Existing rows depend on this
// format; changing it requires a key-rewriting migration.
func NewKeyBuilder() KeyBuilder {
	return defaultKeyBuilder{prefix: "fsm", sep: ":"}
}

func (b defaultKeyBuilder) Build(k Key) string {
	k = k.WithDefaults()
	parts := []string{
		b.prefix,
		strconv.FormatInt(k.BotID, 10),
		strconv.FormatInt(k.ChatID, 10),
		strconv.FormatInt(k.UserID, 10),
		k.Destiny,
	}
	return strings.Join(parts, b.sep)
}
