// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a Definition whose run-time choices are already populated, the
//   renderer converts it into plain, accessible HTML.  Bound forms echo the
//   submitted raw values back into their inputs and list field errors under
//   each control.  Unbound forms use each field's Initial value.
//
// Workflow
//   •  Render writes a <form> wrapper and each field via writeField.
//   •  Select options carry (value, label) pairs; the selected option is the
//      bound or initial value.
//   •  Disabled fields get the HTML disabled attribute so browsers do not
//      submit them.
//   •  The caller receives template.HTML so the surrounding page template does
//      not double-escape the markup.
//
// Style
//   Output HTML is deliberately plain, no framework classes, so themes can
//   style via element selectors or class hooks.  Each input gets
//   id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Values holds the submitted raw values.  Keys missing from Values fall
	// back to the field's Initial value, matching how absent keys default
	// during validation.
	Values url.Values
	// Errors holds per-field messages from the last validation pass.
	Errors Errors
	// Submit is the submit button text.  Empty omits the button.
	Submit string
}

// Render returns the HTML markup for def.
func Render(def *Definition, opts RenderOptions) (template.HTML, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<form class="search-form" method="%s" action="%s">`+"\n",
		html.EscapeString(def.Method), html.EscapeString(def.Action))

	// Hidden fields have no place to show messages; list theirs up front.
	var top []string
	for _, f := range def.Fields {
		if f.Type == "hidden" {
			top = append(top, opts.Errors[f.Name]...)
		}
	}
	writeErrors(&buf, "errorlist nonfield", top)

	for i := range def.Fields {
		f := &def.Fields[i]
		val := f.Initial
		if v, ok := Value(opts.Values, f.Name); ok {
			val = v
		}
		if err := writeField(&buf, f, val, opts.Errors[f.Name]); err != nil {
			return "", err
		}
	}

	if opts.Submit != "" {
		buf.WriteString(`<button type="submit">` + html.EscapeString(opts.Submit) + `</button>` + "\n")
	}
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *Field, val string, errs []string) error {
	name := html.EscapeString(f.Name)
	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	if f.Type == "hidden" {
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="hidden"`)
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")
		return nil
	}

	buf.WriteString(`<div class="form-field">` + "\n")
	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label))
	if f.Required {
		buf.WriteString(` <span class="required">(required)</span>`)
	}
	buf.WriteString(`</label>` + "\n")

	switch f.Type {
	case "text", "number", "date":
		// Dates are typed text so the mm/dd/yyyy format works without a
		// browser date picker rewriting it.
		typ := f.Type
		if typ == "date" {
			typ = "text"
		}
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + typ + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		writeFlags(buf, f)
		buf.WriteString(`>` + "\n")

	case "select":
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr)
		writeFlags(buf, f)
		buf.WriteString(`>` + "\n")
		for _, c := range f.Choices {
			sel := ""
			if c.Value == val {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(c.Value) + `"` + sel + `>` +
				html.EscapeString(c.Label) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	case "checkbox":
		checked := ""
		if on, msg := ParseBool(val); msg == "" && on {
			checked = ` checked`
		}
		// The hidden twin makes an unchecked box submit an explicit false, so
		// a missing key can keep meaning "use the default".  It must follow
		// the checkbox: Value reads the first submitted value.
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="checkbox" value="true"` + checked)
		writeFlags(buf, f)
		buf.WriteString(`>` + "\n")
		buf.WriteString(`<input ` + nameAttr + ` type="hidden" value="false">` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	writeErrors(buf, "errorlist", errs)
	buf.WriteString(`</div>` + "\n")
	return nil
}

func writeErrors(buf *bytes.Buffer, class string, errs []string) {
	if len(errs) == 0 {
		return
	}
	buf.WriteString(`<ul class="` + class + `" aria-live="polite">` + "\n")
	for _, m := range errs {
		buf.WriteString(`<li>` + html.EscapeString(m) + `</li>` + "\n")
	}
	buf.WriteString(`</ul>` + "\n")
}

func writeFlags(buf *bytes.Buffer, f *Field) {
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.Disabled {
		buf.WriteString(` disabled`)
	}
}
