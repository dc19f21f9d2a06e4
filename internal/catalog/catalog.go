// Package catalog provides the static artwork dataset that the admin bulk
// load writes into the store.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

//go:embed artwork.json
var embedded []byte

// Load returns the embedded dataset with identifiers filled in.
func Load() ([]domain.Artwork, error) {
	return Parse(bytes.NewReader(embedded))
}

// LoadFile reads a dataset from path instead of the embedded copy.
func LoadFile(path string) ([]domain.Artwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a JSON array of artwork records and normalises each one: the
// artist gets its partition key as ID, and an artwork without an explicit ID
// gets the slug of its title and that key.
func Parse(r io.Reader) ([]domain.Artwork, error) {
	var recs []domain.Artwork
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range recs {
		recs[i].Artist.ID = domain.ArtistKey(recs[i].Artist)
		if recs[i].ID == "" {
			recs[i].ID = domain.Slugify(recs[i].Title + " " + recs[i].Artist.ID)
		}
	}
	return recs, nil
}
