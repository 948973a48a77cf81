package soundscape

import (
	"errors"
	"fmt"
)

// Key identifies one of the built-in ambient sounds.
type Key string

const (
	Ocean    Key = "ocean"
	Rain     Key = "rain"
	Wind     Key = "wind"
	Bowls    Key = "bowls"
	Crickets Key = "crickets"
	White    Key = "white"
)

// ErrUnknownSound indicates a key outside the library.
var ErrUnknownSound = errors.New("unknown soundscape")

// Keys lists every sound in display order.
func Keys() []Key {
	return []Key{Ocean, Rain, Wind, Bowls, Crickets, White}
}

// ParseKey validates a raw key.
func ParseKey(raw string) (Key, error) {
	for _, key := range Keys() {
		if string(key) == raw {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSound, raw)
}

// Library maps each key to the audio source it plays.
type Library map[Key]string

// Source returns the audio source for key.
func (library Library) Source(key Key) (string, error) {
	source, ok := library[key]
	if !ok || source == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownSound, key)
	}
	return source, nil
}
