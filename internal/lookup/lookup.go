// Package lookup reads the hand-maintained tables that map SFB1451 project
// codes to grant names and registry identifiers.
package lookup

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Grant is one funding table entry.
type Grant struct {
	Name       string `toml:"name"`
	Identifier string `toml:"identifier"`
}

// Tables holds the lookup tables. Funding is keyed by uppercase project
// code, e.g. "A01" or "Z03".
type Tables struct {
	Funding map[string]Grant `toml:"funding"`
}

// Load reads tables from a TOML file.
func Load(path string) (*Tables, error) {
	var t Tables
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("reading lookup tables from %s: %w", path, err)
	}
	return &t, nil
}

// Project returns the funding entry for a project code. The code is
// uppercased before the lookup, matching how the table is keyed.
func (t *Tables) Project(code string) (Grant, bool) {
	if t == nil {
		return Grant{}, false
	}
	g, ok := t.Funding[strings.ToUpper(code)]
	return g, ok
}
