// Package agency holds the ordered catalog of federal agencies used to
// populate the top-level “agency” choice on the audit search form.
//
// The catalog is a slice, not a map: several agencies legitimately share a
// two-digit prefix (45 covers the arts and humanities endowments, for
// example), and display order matters.  Entry zero is always the empty
// sentinel, which stands for “no agency chosen” and matches every program
// number when used as a prefix.
package agency

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/distiller/internal/form"
)

//go:embed agencies.yaml
var catalogYAML []byte

// Agency is one catalog entry.
type Agency struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// Catalog is the ordered agency list, sentinel first.
type Catalog []Agency

var prefixRE = regexp.MustCompile(`^[0-9]{2}$`)

// Default loads the embedded catalog.  It panics on a malformed file since
// the file ships inside the binary.
func Default() Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("agency: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog document and prepends the empty sentinel.
func Parse(raw []byte) (Catalog, error) {
	var doc struct {
		Agencies []Agency `yaml:"agencies"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse agency catalog: %w", err)
	}
	if len(doc.Agencies) == 0 {
		return nil, errors.New("agency catalog is empty")
	}

	seen := make(map[Agency]struct{}, len(doc.Agencies))
	for i, a := range doc.Agencies {
		if !prefixRE.MatchString(a.Prefix) {
			return nil, fmt.Errorf("agency %q: prefix %q is not two digits", a.Name, a.Prefix)
		}
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("agency with prefix %s has no name", a.Prefix)
		}
		if _, dup := seen[a]; dup {
			return nil, fmt.Errorf("agency %s %q listed twice", a.Prefix, a.Name)
		}
		seen[a] = struct{}{}
		if i > 0 && strings.ToLower(doc.Agencies[i-1].Name) > strings.ToLower(a.Name) {
			return nil, fmt.Errorf("agency %q is out of alphabetical order", a.Name)
		}
	}

	return append(Catalog{{}}, doc.Agencies...), nil
}

// Default returns the sentinel entry.
func (c Catalog) Default() Agency { return c[0] }

// Contains reports whether prefix is a catalog key.  The empty sentinel
// counts.
func (c Catalog) Contains(prefix string) bool {
	for _, a := range c {
		if a.Prefix == prefix {
			return true
		}
	}
	return false
}

// Lookup returns every agency that uses prefix, in catalog order.
func (c Catalog) Lookup(prefix string) []Agency {
	var out []Agency
	for _, a := range c[1:] {
		if a.Prefix == prefix {
			out = append(out, a)
		}
	}
	return out
}

// Choices renders the catalog as select choices.  Labels carry the prefix so
// agencies sharing one stay distinguishable.
func (c Catalog) Choices() []form.Choice {
	out := make([]form.Choice, len(c))
	for i, a := range c {
		if a.Prefix == "" {
			out[i] = form.Choice{}
			continue
		}
		out[i] = form.Choice{Value: a.Prefix, Label: a.Prefix + " - " + a.Name}
	}
	return out
}
