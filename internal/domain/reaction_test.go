package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseReaction(t *testing.T) {
	cases := []struct {
		in   string
		want Reaction
		ok   bool
	}{
		{"👍", ReactionThumbsUp, true},
		{"❤️", ReactionHeart, true},
		{"❤", ReactionHeart, true},
		{" 🦕 ", ReactionDinosaur, true},
		{"🍕", ReactionPizza, true},
		{"", 0, false},
		{"🔥", 0, false},
		{"thumbs", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseReaction(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ParseReaction(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrUnknownReaction) {
			t.Fatalf("ParseReaction(%q) err = %v; want ErrUnknownReaction", tc.in, err)
		}
	}
}

func TestReaction_ValidAndString(t *testing.T) {
	if Reaction(0).Valid() || Reaction(5).Valid() {
		t.Fatalf("out-of-range reactions must be invalid")
	}
	if Reaction(0).String() != "" {
		t.Fatalf("invalid reaction should stringify empty")
	}
	if DefaultReaction.String() != "👍" {
		t.Fatalf("default = %q", DefaultReaction.String())
	}
	if len(Reactions()) != 4 {
		t.Fatalf("want 4 canonical reactions")
	}
}

func TestReaction_JSON(t *testing.T) {
	e := ReactionEntry{ArtworkID: "a1", User: "octo", Reaction: ReactionPizza}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"artworkId":"a1","user":"octo","reaction":"🍕"}` {
		t.Fatalf("json = %s", b)
	}

	counts := ReactionCounts{ReactionHeart: 2}
	b, _ = json.Marshal(counts)
	if string(b) != `{"❤️":2}` {
		t.Fatalf("counts json = %s", b)
	}

	var bad ReactionEntry
	if err := json.Unmarshal([]byte(`{"reaction":"🔥"}`), &bad); err == nil {
		t.Fatalf("expected error for unknown reaction")
	}
	if _, err := Reaction(9).MarshalText(); err == nil {
		t.Fatalf("expected marshal error for invalid reaction")
	}
}

func TestCountAndDetails(t *testing.T) {
	entries := []ReactionEntry{
		{ArtworkID: "a", User: "u1", Reaction: ReactionThumbsUp},
		{ArtworkID: "a", User: "u2", Reaction: ReactionThumbsUp},
		{ArtworkID: "a", User: "u3", Reaction: ReactionPizza},
	}
	c := CountReactions(entries)
	if c[ReactionThumbsUp] != 2 || c[ReactionPizza] != 1 {
		t.Fatalf("counts = %v", c)
	}
	if _, ok := c[ReactionHeart]; ok {
		t.Fatalf("unused kinds must be absent")
	}
	if c.Total() != 3 {
		t.Fatalf("total = %d", c.Total())
	}

	d := BuildReactionDetails(entries)
	if !reflect.DeepEqual(d[ReactionThumbsUp], []string{"u1", "u2"}) {
		t.Fatalf("details = %v", d)
	}
	if len(d) != 2 {
		t.Fatalf("details kinds = %d; want 2", len(d))
	}
}

func TestDefaults(t *testing.T) {
	c := DefaultCounts()
	d := DefaultDetails()
	for _, r := range Reactions() {
		if n, ok := c[r]; !ok || n != 0 {
			t.Fatalf("default count for %v = %d,%v", r, n, ok)
		}
		if users, ok := d[r]; !ok || users == nil || len(users) != 0 {
			t.Fatalf("default details for %v = %v,%v", r, users, ok)
		}
	}
}

func TestMergeCounts_RightBiased(t *testing.T) {
	got := MergeCounts(DefaultCounts(), ReactionCounts{ReactionDinosaur: 3})
	if len(got) != 4 || got[ReactionDinosaur] != 3 || got[ReactionThumbsUp] != 0 {
		t.Fatalf("merged = %v", got)
	}
}

func TestMergeDetails_NoDuplicates(t *testing.T) {
	base := ReactionDetails{ReactionThumbsUp: {"a", "b"}}
	actual := ReactionDetails{ReactionThumbsUp: {"b", "c"}, ReactionPizza: {"d", "d"}}

	got := MergeDetails(base, actual)
	if !reflect.DeepEqual(got[ReactionThumbsUp], []string{"a", "b", "c"}) {
		t.Fatalf("thumbs = %v", got[ReactionThumbsUp])
	}
	if !reflect.DeepEqual(got[ReactionPizza], []string{"d"}) {
		t.Fatalf("pizza = %v", got[ReactionPizza])
	}

	full := MergeDetails(DefaultDetails(), actual)
	if len(full) != 4 || full[ReactionHeart] == nil {
		t.Fatalf("merge with defaults = %v", full)
	}
	if !reflect.DeepEqual(base[ReactionThumbsUp], []string{"a", "b"}) {
		t.Fatalf("base mutated: %v", base)
	}
}
