// internal/search/validator.go
//
// Audit search form: validation and normalization.
//
// Context
//   A search arrives as raw query parameters.  Validate turns them into a
//   typed Filter, or into per-field messages the page shows next to each
//   control.  Choices for the sub-agency select depend on the parent agency,
//   so every pass runs in two steps:
//
//     1. Resolve sub-agency choices for the parsed agency (one read query).
//     2. Build field descriptions from the resolved set, then parse and
//        cross-check every field against them.
//
//   Fields are parsed independently and errors accumulate.  The drill-down
//   marker is the exception: a truthy `filtering` value replaces every other
//   message with a single rejection, since it means the plain search entry
//   point was reached from the results page.
//
//   The current time is a parameter so the audit-year range is deterministic
//   in tests.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package search

import (
	"context"
	_ "embed"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/yanizio/distiller/internal/agency"
	"github.com/yanizio/distiller/internal/form"
	"github.com/yanizio/distiller/internal/metrics"
)

//go:embed form.yaml
var formYAML []byte

// FACStartYear is the first year of audits loaded from the clearinghouse
// dumps.  Audit years must be strictly later.
const FACStartYear = 2016

// Cross-field messages.
const (
	MsgFiltering = "Cannot search while filtering is active."
	MsgEndDate   = "End date may not be earlier than start date."
	MsgStartDate = "Start date may not be earlier than start date"
)

// Options tune a Validator.
type Options struct {
	// FACStartYear overrides the package default when non-zero.
	FACStartYear int
}

// Validator validates search submissions.  It holds no per-request state and
// is safe for concurrent use.
type Validator struct {
	def       *form.Definition
	catalog   agency.Catalog
	resolver  *Resolver
	startYear int
}

// NewValidator parses the embedded form definition and binds the catalog and
// sub-agency source.
func NewValidator(catalog agency.Catalog, source SubAgencySource, opts Options) (*Validator, error) {
	def, err := form.ParseDefinition(formYAML)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, errors.New("search: empty agency catalog")
	}
	start := opts.FACStartYear
	if start == 0 {
		start = FACStartYear
	}
	return &Validator{
		def:       def,
		catalog:   catalog,
		resolver:  NewResolver(catalog, source),
		startYear: start,
	}, nil
}

// Resolver exposes the sub-agency resolver for the choices endpoint.
func (v *Validator) Resolver() *Resolver { return v.resolver }

// Bound is the outcome of one validation pass.
type Bound struct {
	Form   *form.Definition // field descriptions with run-time choices
	Raw    url.Values       // submitted values, echoed on re-render
	Errors form.Errors      // field name → messages
	Filter *Filter          // nil unless Errors is empty
}

// Valid reports whether the pass produced a Filter.
func (b *Bound) Valid() bool { return len(b.Errors) == 0 && b.Filter != nil }

// Err returns the field errors as a *form.ValidationError, or nil.
func (b *Bound) Err() error {
	if len(b.Errors) == 0 {
		return nil
	}
	return &form.ValidationError{Fields: b.Errors}
}

// Fields resolves sub-agency choices for agencyPrefix and returns the field
// descriptions built from them.
func (v *Validator) Fields(ctx context.Context, agencyPrefix string, now time.Time) (*form.Definition, error) {
	subs, err := v.resolver.Resolve(ctx, agencyPrefix)
	if err != nil {
		return nil, err
	}
	return v.build(subs, now), nil
}

// Unbound returns the form for a page with no submission yet.
func (v *Validator) Unbound(ctx context.Context, now time.Time) (*Bound, error) {
	def, err := v.Fields(ctx, "", now)
	if err != nil {
		return nil, err
	}
	return &Bound{Form: def, Errors: form.Errors{}}, nil
}

// Validate runs one pass over raw.  Field problems are reported in the
// returned Bound.  A non-nil error means the listing store failed; it wraps
// ErrSearchUnavailable and no partial result is returned.
func (v *Validator) Validate(ctx context.Context, raw url.Values, now time.Time) (*Bound, error) {
	errs := form.Errors{}
	out := &Filter{}

	//
	// agency first: the sub-agency choices hang off it.
	//
	agencyVal, _ := form.Value(raw, FieldAgency)
	switch {
	case agencyVal == "":
		errs.Add(FieldAgency, form.MsgRequired)
	case !v.catalog.Contains(agencyVal):
		errs.Add(FieldAgency, form.ChoiceMsg(agencyVal))
	default:
		out.Agency = agencyVal
	}

	def, err := v.Fields(ctx, out.Agency, now)
	if err != nil {
		metrics.SearchValidations.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return nil, err
	}

	//
	// choice-backed fields
	//
	if s, _ := form.Value(raw, FieldSubAgency); s != "" {
		if form.ChoiceAllowed(def.Field(FieldSubAgency), s) {
			out.SubAgency = &s
		} else {
			errs.Add(FieldSubAgency, form.ChoiceMsg(s))
		}
	}

	if s, _ := form.Value(raw, FieldAuditYear); s != "" {
		if n, msg := form.ParseInt(s); msg != "" {
			errs.Add(FieldAuditYear, msg)
		} else if !form.ChoiceAllowed(def.Field(FieldAuditYear), strconv.Itoa(n)) {
			errs.Add(FieldAuditYear, form.ChoiceMsg(s))
		} else {
			out.AuditYear = &n
		}
	}

	out.Sort = v.enum(def, raw, FieldSort, "", errs)
	out.Order = v.enum(def, raw, FieldOrder, "", errs)
	out.Format = v.enum(def, raw, FieldFormat, FormatHTML, errs)

	//
	// typed scalars
	//
	out.StartDate = parseDate(raw, FieldStartDate, errs)
	out.EndDate = parseDate(raw, FieldEndDate, errs)

	out.Page = 1
	if s, _ := form.Value(raw, FieldPage); s != "" {
		if n, msg := form.ParseInt(s); msg != "" {
			errs.Add(FieldPage, msg)
		} else if n < 1 {
			errs.Add(FieldPage, form.MinValueMsg(1))
		} else {
			out.Page = n
		}
	}

	out.Findings = parseBool(raw, FieldFindings, true, errs)
	out.AgencyCogOversight = parseBool(raw, FieldAgencyCogOversight, false, errs)

	filtering := 0
	if s, _ := form.Value(raw, FieldFiltering); s != "" {
		if n, msg := form.ParseInt(s); msg != "" {
			errs.Add(FieldFiltering, msg)
		} else {
			filtering = n
		}
	}

	//
	// cross-field rules
	//
	bound := &Bound{Form: def, Raw: raw}

	if filtering != 0 {
		bound.Errors = form.Errors{FieldFiltering: {MsgFiltering}}
		metrics.SearchValidations.WithLabelValues(metrics.OutcomeFiltering).Inc()
		return bound, nil
	}

	if out.StartDate != nil && out.EndDate != nil && out.StartDate.After(*out.EndDate) {
		errs.Add(FieldEndDate, MsgEndDate)
		errs.Add(FieldStartDate, MsgStartDate)
	}

	bound.Errors = errs
	if len(errs) > 0 {
		metrics.SearchValidations.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return bound, nil
	}

	bound.Filter = out
	metrics.SearchValidations.WithLabelValues(metrics.OutcomeValid).Inc()
	return bound, nil
}

// build copies the static definition and fills the run-time choices.
func (v *Validator) build(subs SubAgencyChoices, now time.Time) *form.Definition {
	def := v.def.Clone()

	def.Field(FieldAgency).SetChoices(v.catalog.Choices())

	sub := def.Field(FieldSubAgency)
	sub.SetChoices(subs.Choices)
	sub.Disabled = subs.Disabled

	def.Field(FieldAuditYear).SetChoices(auditYearChoices(v.startYear, now))
	return def
}

// auditYearChoices lists years newest first, down to startYear+1, after an
// empty choice.
func auditYearChoices(startYear int, now time.Time) []form.Choice {
	out := []form.Choice{{}}
	for y := now.Year(); y > startYear; y-- {
		s := strconv.Itoa(y)
		out = append(out, form.Choice{Value: s, Label: s})
	}
	return out
}

// enum validates an optional select against its static choices.  Empty or
// absent values yield def.
func (v *Validator) enum(d *form.Definition, raw url.Values, name, def string, errs form.Errors) string {
	s, _ := form.Value(raw, name)
	if s == "" {
		return def
	}
	if !form.ChoiceAllowed(d.Field(name), s) {
		errs.Add(name, form.ChoiceMsg(s))
		return def
	}
	return s
}

func parseDate(raw url.Values, name string, errs form.Errors) *time.Time {
	s, _ := form.Value(raw, name)
	if s == "" {
		return nil
	}
	t, msg := form.ParseDate(s)
	if msg != "" {
		errs.Add(name, msg)
		return nil
	}
	return &t
}

// parseBool applies def only when the key is absent; a present empty value is
// an unchecked box.
func parseBool(raw url.Values, name string, def bool, errs form.Errors) bool {
	s, ok := form.Value(raw, name)
	if !ok {
		return def
	}
	b, msg := form.ParseBool(s)
	if msg != "" {
		errs.Add(name, msg)
		return def
	}
	return b
}
