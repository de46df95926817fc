// apps/go-server/internal/cities/catalog.go
//
// City catalog for the chain game.
// Responsibilities:
//   - Load the list of valid city names from a file (CITIES_FILE) or fall back
//     to the embedded default list.
//   - Index entries by canonical form for O(1) lookups.
//   - Refuse to start with an empty list, with a name that has no usable
//     first/last letter, or with two entries that normalize to the same
//     canonical form (lookups would otherwise depend on scan order).
//
// A Catalog is immutable after construction and safe for concurrent use.

package cities

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/cities/apps/go-server/assets"
)

// ErrEmptyCatalog is returned when no usable city names were loaded.
var ErrEmptyCatalog = errors.New("cities: catalog is empty")

// DuplicateError reports two catalog entries sharing one canonical form.
type DuplicateError struct {
	First, Second string
	Canonical     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("cities: %q and %q both normalize to %q", e.First, e.Second, e.Canonical)
}

// Entry is one catalog city with its precomputed canonical form and first letter.
type Entry struct {
	Name      string // display form, as listed
	Canonical string
	First     rune
}

// Catalog is the immutable set of valid cities.
type Catalog struct {
	entries []Entry
	byCanon map[string]int // canonical → index into entries
}

// New builds a catalog from display names. Blank names are skipped.
func New(names []string) (*Catalog, error) {
	c := &Catalog{byCanon: make(map[string]int, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		canon := Normalize(name)
		if canon == "" {
			continue
		}
		if i, dup := c.byCanon[canon]; dup {
			return nil, &DuplicateError{First: c.entries[i].Name, Second: name, Canonical: canon}
		}
		first, ok := FirstLetter(canon)
		if _, hasLast := LastLetter(canon); !ok || !hasLast {
			return nil, fmt.Errorf("cities: %q has no usable first/last letter", name)
		}
		c.byCanon[canon] = len(c.entries)
		c.entries = append(c.entries, Entry{Name: name, Canonical: canon, First: first})
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// Load reads CITIES_FILE when set, otherwise the embedded default list.
func Load() (*Catalog, error) {
	if path := os.Getenv("CITIES_FILE"); path != "" {
		return LoadFile(path)
	}
	return LoadEmbedded()
}

// LoadFile reads one city per line from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cities: open %s: %w", path, err)
	}
	defer f.Close()
	names, err := readNames(f)
	if err != nil {
		return nil, fmt.Errorf("cities: read %s: %w", path, err)
	}
	return New(names)
}

// LoadEmbedded reads the default list shipped in the binary.
func LoadEmbedded() (*Catalog, error) {
	names, err := assets.CityList()
	if err != nil {
		return nil, fmt.Errorf("cities: embedded list: %w", err)
	}
	return New(names)
}

// readNames returns non-empty, non-comment lines.
func readNames(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Lookup returns the catalog entry whose canonical form equals Normalize(raw).
func (c *Catalog) Lookup(raw string) (Entry, bool) {
	i, ok := c.byCanon[Normalize(raw)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns the catalog in load order. Callers must not modify it.
func (c *Catalog) Entries() []Entry { return c.entries }

// Names returns display names in load order.
func (c *Catalog) Names() []string {
	return lo.Map(c.entries, func(e Entry, _ int) string { return e.Name })
}

// Len reports the number of cities.
func (c *Catalog) Len() int { return len(c.entries) }

// StartingWith returns the entries whose first letter is r.
func (c *Catalog) StartingWith(r rune) []Entry {
	return lo.Filter(c.entries, func(e Entry, _ int) bool { return e.First == r })
}
