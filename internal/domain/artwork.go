package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Artist credits a piece of artwork. Only Name is required; the partition key
// used in storage comes from ArtistKey.
type Artist struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	GitHub       string `json:"github,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
	Twitter      string `json:"twitter,omitempty"`
	Instagram    string `json:"instagram,omitempty"`
	Web          string `json:"web,omitempty"`
}

// Artwork is a single gallery piece. Records are treated as immutable once
// stored; re-saving replaces the whole document.
type Artwork struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Image   string    `json:"image"`
	Title   string    `json:"title"`
	Link    string    `json:"link,omitempty"`
	Alt     string    `json:"alt"`
	Artist  Artist    `json:"artist"`
	License string    `json:"license"`
}

// ArtworkEntry pairs an artwork with the reactions left on it.
type ArtworkEntry struct {
	Artwork   Artwork         `json:"artwork"`
	Reactions []ReactionEntry `json:"reactions"`
}

// ArtistKey returns the key that partitions an artist's work: the explicit
// ID, else the GitHub login, else the slugified display name.
func ArtistKey(a Artist) string {
	if id := strings.TrimSpace(a.ID); id != "" {
		return id
	}
	if gh := strings.TrimSpace(a.GitHub); gh != "" {
		return gh
	}
	return Slugify(a.Name)
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, folds accented letters to their base form and
// collapses every run of other characters into a single '-'.
//
//	Slugify("Crème Brûlée  #2") == "creme-brulee-2"
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
