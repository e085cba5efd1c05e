package agency

import (
	"strings"
	"testing"
)

func TestDefault_SentinelFirstAndSorted(t *testing.T) {
	c := Default()

	if c.Default() != (Agency{}) {
		t.Fatalf("first entry = %#v, want empty sentinel", c[0])
	}
	for i := 2; i < len(c); i++ {
		if strings.ToLower(c[i-1].Name) > strings.ToLower(c[i].Name) {
			t.Fatalf("catalog out of order at %d: %q > %q", i, c[i-1].Name, c[i].Name)
		}
	}
}

func TestDefault_SharedPrefixes(t *testing.T) {
	c := Default()

	if got := len(c.Lookup("45")); got < 2 {
		t.Fatalf("Lookup(45) = %d agencies, want shared prefix", got)
	}
	if !c.Contains("93") || !c.Contains("") {
		t.Fatalf("Contains misses known prefixes")
	}
	if c.Contains("9") || c.Contains("93.") {
		t.Fatalf("Contains accepted a malformed prefix")
	}
}

func TestParse_KeepsLeadingZeroes(t *testing.T) {
	c, err := Parse([]byte(`agencies:
  - {prefix: "07", name: "Alpha"}
  - {prefix: "10", name: "beta"}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c[1].Prefix != "07" {
		t.Fatalf("prefix = %q, want 07", c[1].Prefix)
	}

	ch := c.Choices()
	if ch[0].Value != "" || ch[1].Value != "07" || ch[1].Label != "07 - Alpha" {
		t.Fatalf("unexpected choices: %#v", ch)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":         `agencies: []`,
		"unquoted int":  "agencies:\n  - {prefix: 7, name: A}",
		"no name":       "agencies:\n  - {prefix: \"10\", name: \" \"}",
		"out of order":  "agencies:\n  - {prefix: \"10\", name: B}\n  - {prefix: \"11\", name: A}",
		"duplicate":     "agencies:\n  - {prefix: \"10\", name: A}\n  - {prefix: \"10\", name: A}",
		"three digits":  "agencies:\n  - {prefix: \"100\", name: A}",
		"not yaml list": `agencies: nope`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
