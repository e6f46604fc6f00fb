package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidProvinces is returned when the province file parses but its
// content cannot be used as a join key set.
var ErrInvalidProvinces = errors.New("invalid province list")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Province is an immutable reference record for one administrative unit.
// Name is the join key into every fetched result.
type Province struct {
	ID        int     `json:"id" validate:"required,gte=1"`
	Name      string  `json:"name" validate:"required"`
	Region    string  `json:"region" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates returns the province centroid.
func (p Province) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// provinceFile is the on-disk shape of the entity list.
type provinceFile struct {
	Provinces []Province `json:"provinces"`
}

// LoadProvinces reads and validates the province list at path.
func LoadProvinces(path string) ([]Province, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open province file: %w", err)
	}
	defer f.Close()

	provinces, err := DecodeProvinces(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return provinces, nil
}

// DecodeProvinces parses a {"provinces": [...]} document. Every record must
// pass field validation and names must be unique, since a duplicate name
// would silently overwrite another province in the output maps.
func DecodeProvinces(r io.Reader) ([]Province, error) {
	var doc provinceFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode province file: %w", err)
	}
	if len(doc.Provinces) == 0 {
		return nil, fmt.Errorf("%w: no provinces", ErrInvalidProvinces)
	}

	seen := make(map[string]int, len(doc.Provinces))
	for i, p := range doc.Provinces {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: province %d (%q): %w", ErrInvalidProvinces, i, p.Name, err)
		}
		if j, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q at %d and %d", ErrInvalidProvinces, p.Name, j, i)
		}
		seen[p.Name] = i
	}
	return doc.Provinces, nil
}

// LookupName resolves a possibly variant spelling of a province name against
// the keys of a snapshot: exact match first, then case-insensitive, then
// ASCII-folded ("Agri" finds "Ağrı"). It reports false when nothing matches.
func LookupName(name string, keys []string) (string, bool) {
	for _, k := range keys {
		if k == name {
			return k, true
		}
	}

	for _, k := range keys {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}

	folded := foldASCII(name)
	for _, k := range keys {
		if foldASCII(k) == folded {
			return k, true
		}
	}
	return "", false
}

// turkishFold maps the Turkish letters that do not decompose under NFD.
var turkishFold = strings.NewReplacer("ı", "i", "İ", "I")

// foldASCII lowercases s and strips diacritics.
func foldASCII(s string) string {
	s = turkishFold.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
