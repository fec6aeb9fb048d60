// Package reason normalizes point-reason labels so every component buckets
// rallies under the same keys.
package reason

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unspecified is the key used for rallies without a reason.
const Unspecified = "Unspecified"

// Labels offered by the rally form.
const (
	OpponentError  = "对手失误"
	ClearDrop      = "拉吊"
	Attack         = "突击"
	Smash          = "杀球"
	NetPlay        = "网前"
	CounterAttack  = "防反"
	Deception      = "假动作"
	PoorPlacement  = "球不到位"
	PoorFootwork   = "步伐不到位"
	OwnError       = "我方失误"
	OpponentWinner = "对手制胜球"
	Other          = "其他"
)

// Catalog lists the form labels in display order.
func Catalog() []string {
	return []string{
		OpponentError, ClearDrop, Attack, Smash, NetPlay, CounterAttack,
		Deception, PoorPlacement, PoorFootwork, OwnError, OpponentWinner, Other,
	}
}

// Normalize returns the bucket key for a raw label.
func Normalize(label string) string {
	key := strings.TrimSpace(norm.NFC.String(label))
	if key == "" {
		return Unspecified
	}
	return key
}

// Key is Normalize for an optional label.
func Key(label *string) string {
	if label == nil {
		return Unspecified
	}
	return Normalize(*label)
}

// Optional trims a form value and returns nil when nothing is left.
func Optional(label string) *string {
	key := strings.TrimSpace(norm.NFC.String(label))
	if key == "" {
		return nil
	}
	return &key
}
