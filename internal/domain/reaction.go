package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Reaction is one of the fixed set of emoji reactions a user can leave on a
// piece of artwork. The zero value is not a valid reaction.
type Reaction uint8

// Canonical reactions, in display order.
const (
	ReactionThumbsUp Reaction = iota + 1
	ReactionHeart
	ReactionDinosaur
	ReactionPizza
)

// DefaultReaction is used when a form post omits the reaction field.
const DefaultReaction = ReactionThumbsUp

// ErrUnknownReaction is returned when a symbol is not one of the canonical reactions.
var ErrUnknownReaction = errors.New("unknown reaction")

var reactionSymbols = [...]string{
	ReactionThumbsUp: "👍",
	ReactionHeart:    "❤️",
	ReactionDinosaur: "🦕",
	ReactionPizza:    "🍕",
}

// Reactions returns every canonical reaction in display order.
func Reactions() []Reaction {
	return []Reaction{ReactionThumbsUp, ReactionHeart, ReactionDinosaur, ReactionPizza}
}

// ParseReaction maps an emoji symbol to its Reaction. The heart is accepted
// with or without the trailing variation selector.
func ParseReaction(s string) (Reaction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrUnknownReaction
	}
	for _, r := range Reactions() {
		sym := reactionSymbols[r]
		if s == sym || s == strings.TrimSuffix(sym, "\ufe0f") {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReaction, s)
}

// Valid reports whether r is one of the canonical reactions.
func (r Reaction) Valid() bool {
	return r >= ReactionThumbsUp && r <= ReactionPizza
}

// String returns the emoji symbol, or "" for an invalid value.
func (r Reaction) String() string {
	if !r.Valid() {
		return ""
	}
	return reactionSymbols[r]
}

// MarshalText encodes the reaction as its emoji. This is also what JSON map
// keys and stored KV values use.
func (r Reaction) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReaction, uint8(r))
	}
	return []byte(reactionSymbols[r]), nil
}

// UnmarshalText decodes an emoji symbol.
func (r *Reaction) UnmarshalText(b []byte) error {
	v, err := ParseReaction(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ReactionEntry is a single user's current reaction on a piece of artwork.
// At most one exists per (ArtworkID, User).
type ReactionEntry struct {
	ArtworkID string   `json:"artworkId"`
	User      string   `json:"user"`
	Reaction  Reaction `json:"reaction"`
}

// ReactionCounts maps each reaction to the number of users holding it.
type ReactionCounts map[Reaction]int

// ReactionDetails maps each reaction to the logins of the users holding it.
type ReactionDetails map[Reaction][]string

// Total sums the counts across every reaction kind.
func (c ReactionCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// DefaultCounts returns a zero count for every canonical reaction.
func DefaultCounts() ReactionCounts {
	out := make(ReactionCounts, len(reactionSymbols))
	for _, r := range Reactions() {
		out[r] = 0
	}
	return out
}

// DefaultDetails returns an empty user list for every canonical reaction.
func DefaultDetails() ReactionDetails {
	out := make(ReactionDetails, len(reactionSymbols))
	for _, r := range Reactions() {
		out[r] = []string{}
	}
	return out
}

// CountReactions tallies entries per reaction. Kinds nobody used are absent.
func CountReactions(entries []ReactionEntry) ReactionCounts {
	out := make(ReactionCounts)
	for _, e := range entries {
		out[e.Reaction]++
	}
	return out
}

// BuildReactionDetails groups the users of entries by reaction, preserving
// entry order. Kinds nobody used are absent.
func BuildReactionDetails(entries []ReactionEntry) ReactionDetails {
	out := make(ReactionDetails)
	for _, e := range entries {
		out[e.Reaction] = appendUnique(out[e.Reaction], e.User)
	}
	return out
}

// MergeCounts overlays actual on base. Values in actual win.
func MergeCounts(base, actual ReactionCounts) ReactionCounts {
	out := make(ReactionCounts, len(base)+len(actual))
	for r, n := range base {
		out[r] = n
	}
	for r, n := range actual {
		out[r] = n
	}
	return out
}

// MergeDetails overlays actual on base. Every kind from either side is
// present and no user appears twice within one kind's list.
func MergeDetails(base, actual ReactionDetails) ReactionDetails {
	out := make(ReactionDetails, len(base)+len(actual))
	for r, users := range base {
		out[r] = appendUnique(nil, users...)
	}
	for r, users := range actual {
		if out[r] == nil {
			out[r] = []string{}
		}
		out[r] = appendUnique(out[r], users...)
	}
	return out
}

func appendUnique(dst []string, users ...string) []string {
	if dst == nil {
		dst = make([]string, 0, len(users))
	}
	for _, u := range users {
		dup := false
		for _, have := range dst {
			if have == u {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, u)
		}
	}
	return dst
}
