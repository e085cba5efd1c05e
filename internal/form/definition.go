// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML document that lists its fields in
//   display order, together with labels, placeholders, initial values, and
//   any static choices.  Packages that own a form embed the YAML and call
//   ParseDefinition once at construction.  Choices that depend on run-time
//   data (for example sub-agencies read from the database) are filled in
//   afterwards by the owning package via Definition.Clone and Field.SetChoices.
//
// Workflow
//   •  Structs mirror the YAML schema: Definition → Field → Choice.
//   •  ParseDefinition decodes the document and validates structural rules.
//   •  Clone returns a deep copy so per-request choice population never
//      mutates the shared definition.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// Definition represents one form loaded from YAML.
type Definition struct {
	ID     string  `yaml:"id"`     // Identifier, e.g. “audit/search”.
	Title  string  `yaml:"title"`  // Display title, optional.
	Action string  `yaml:"action"` // Target URL for the rendered <form>.
	Method string  `yaml:"method"` // get or post; defaults to get.
	Fields []Field `yaml:"fields"` // Fields in display order.
}

// Field describes a single input control.  Validation metadata lives inline so
// the server can enforce the same rules the markup hints at.
type Field struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required unless hidden.
	Type        string   `yaml:"type"`        // text, number, date, select, checkbox, hidden.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`    // True if input is mandatory.
	Disabled    bool     `yaml:"disabled"`    // Rendered non-interactive.
	Initial     string   `yaml:"initial"`     // Value used when the form is unbound.
	Choices     []Choice `yaml:"choices"`     // For select.  May be filled at run time.
	Dynamic     bool     `yaml:"dynamic"`     // Choices are supplied at run time.
}

// Choice is one (value, label) pair of a select field.  Values are always
// strings so codes such as agency prefixes keep their leading zeroes.
type Choice struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

var knownTypes = map[string]bool{
	"text":     true,
	"number":   true,
	"date":     true,
	"select":   true,
	"checkbox": true,
	"hidden":   true,
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseDefinition decodes one YAML document and validates its structure.
func ParseDefinition(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse form YAML: %w", err)
	}
	if def.Method == "" {
		def.Method = "get"
	}
	if err := validateDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Field returns a pointer to the named field, or nil.
func (d *Definition) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	out := *d
	out.Fields = make([]Field, len(d.Fields))
	for i, f := range d.Fields {
		f.Choices = append([]Choice(nil), f.Choices...)
		out.Fields[i] = f
	}
	return &out
}

// SetChoices replaces the field's choices.
func (f *Field) SetChoices(choices []Choice) {
	f.Choices = append([]Choice(nil), choices...)
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateDefinition enforces structural rules that cannot be expressed via
// YAML tags alone.
func validateDefinition(d *Definition) error {
	if d.ID == "" {
		return errors.New("form definition: missing required 'id'")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("form %s: must have 'fields'", d.ID)
	}
	if d.Method != "get" && d.Method != "post" {
		return fmt.Errorf("form %s: unsupported method %q", d.ID, d.Method)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := validateField(d.ID, f); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", d.ID, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(formID string, f *Field) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", formID)
	}
	if f.Type == "" {
		return fmt.Errorf("form %s: field '%s' missing 'type'", formID, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", formID, f.Name, f.Type)
	}
	if f.Label == "" && f.Type != "hidden" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", formID, f.Name)
	}
	if len(f.Choices) > 0 && f.Type != "select" {
		return fmt.Errorf("form %s: field '%s' has choices but is not a select", formID, f.Name)
	}
	if f.Type == "select" && !f.Dynamic && len(f.Choices) == 0 {
		return fmt.Errorf("form %s: select '%s' needs choices or 'dynamic: true'", formID, f.Name)
	}

	values := make(map[string]struct{}, len(f.Choices))
	for _, c := range f.Choices {
		if _, dup := values[c.Value]; dup {
			return fmt.Errorf("form %s: field '%s' has duplicate choice %q", formID, f.Name, c.Value)
		}
		values[c.Value] = struct{}{}
	}
	return nil
}
