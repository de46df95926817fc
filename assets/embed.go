// apps/go-server/assets/embed.go
//
// Files compiled into the binary: the default city list and the SQL migrations.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed cities.txt sql/*.sql
var FS embed.FS

// readLines returns trimmed, non-empty lines that are not "#" comments.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// CityList returns the embedded city names in file order.
func CityList() ([]string, error) {
	return readLines("cities.txt")
}

// Migrations exposes the sql/ directory rooted at its own level.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is embedded at compile time; Sub only fails on an invalid path.
		panic(err)
	}
	return sub
}
