// internal/form/validate.go
//
// Forms subsystem: field errors and value parsers.
//
// Context
//   Owners of a form parse each submitted value with the helpers below and
//   collect user-facing messages in an Errors map keyed by field name.  Errors
//   accumulate, so one pass reports every bad field at once.  A non-empty map
//   means the caller must re-render the form with the messages and the raw
//   values echoed back.
//
//   Parse helpers return a message string rather than an error so callers can
//   append it to Errors directly.  An empty message means success.
//
// Style
//   Comments follow the house guide: full sentences, two space spacing, Oxford
//   comma.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

const (
	MsgRequired = "This field is required."
	MsgInvalid  = "Invalid value."
	MsgInteger  = "Enter a whole number."
	MsgDate     = "Enter a valid date."
)

// ChoiceMsg is the message for a value outside a field's choices.
func ChoiceMsg(v string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v)
}

// MinValueMsg is the message for an integer below its lower bound.
func MinValueMsg(min int) string {
	return fmt.Sprintf("Ensure this value is greater than or equal to %d.", min)
}

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// Errors maps field name → user-facing messages, in the order they were added.
type Errors map[string][]string

// Add appends msg to field's messages.
func (e Errors) Add(field, msg string) { e[field] = append(e[field], msg) }

// Has reports whether field carries at least one message.
func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

// Fields returns the names of the failing fields, sorted.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidationError wraps Errors and satisfies the error interface.
//
// It lets callers distinguish user input errors from system failures via
// errors.As / IsValidationError.
type ValidationError struct{ Fields Errors }

func (ve *ValidationError) Error() string {
	return "form validation failed: " + strings.Join(ve.Fields.Fields(), ", ")
}

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// -----------------------------------------------------------------------------
// Raw value access
// -----------------------------------------------------------------------------

// Value returns the first submitted value for name, trimmed, and whether the
// key was present at all.
func Value(v url.Values, name string) (string, bool) {
	raw, ok := v[name]
	if !ok || len(raw) == 0 {
		return "", false
	}
	return strings.TrimSpace(raw[0]), true
}

// -----------------------------------------------------------------------------
// Parsers
// -----------------------------------------------------------------------------

// DateLayouts are the accepted date input formats, tried in order.  The first
// layout is also the output format.  Month and day may drop the leading
// zero (1/5/2020).
var DateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "1/2/06"}

// ParseDate parses s with DateLayouts.
func ParseDate(s string) (time.Time, string) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, ""
		}
	}
	return time.Time{}, MsgDate
}

// FormatDate renders t in the primary input layout.
func FormatDate(t time.Time) string { return t.Format(DateLayouts[0]) }

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, string) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, MsgInteger
	}
	return n, ""
}

// ParseBool accepts the spellings browsers and links commonly send.  An empty
// string is false, matching an unchecked box that still sends its key.
func ParseBool(s string) (bool, string) {
	switch strings.ToLower(s) {
	case "true", "on", "yes", "1":
		return true, ""
	case "false", "off", "no", "0", "":
		return false, ""
	}
	return false, MsgInvalid
}

// ChoiceAllowed reports whether v is one of the field's choice values.
func ChoiceAllowed(f *Field, v string) bool {
	return slices.ContainsFunc(f.Choices, func(c Choice) bool { return c.Value == v })
}
