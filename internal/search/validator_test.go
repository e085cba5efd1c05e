// internal/search/validator_test.go
//
// Unit-tests for the search form validator.
//
// Context
// -------
// A fakeSource stands in for the listing repository; "now" is pinned to
// 2024-03-01 so the audit-year range is (2016, 2024].
//
// Run: go test ./internal/search -v

package search

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/distiller/internal/agency"
	"github.com/yanizio/distiller/internal/form"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator(t *testing.T, src *fakeSource) *Validator {
	t.Helper()
	if src == nil {
		src = &fakeSource{}
	}
	if src.subs == nil {
		src.subs = map[string][]string{
			"93": {"ADMINISTRATION FOR CHILDREN AND FAMILIES", "CENTERS FOR DISEASE CONTROL"},
			"":   {"ANY AGENCY"},
		}
	}
	v, err := NewValidator(agency.Default(), src, Options{})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func validate(t *testing.T, v *Validator, raw url.Values) *Bound {
	t.Helper()
	b, err := v.Validate(context.Background(), raw, testNow)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return b
}

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) *time.Time {
	return ptr(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestValidate_AgencyOnlyAppliesDefaults(t *testing.T) {
	b := validate(t, newTestValidator(t, nil), url.Values{"agency": {"93"}})

	if !b.Valid() {
		t.Fatalf("unexpected errors: %v", b.Errors)
	}
	want := &Filter{Agency: "93", Page: 1, Findings: true, Format: FormatHTML}
	if diff := cmp.Diff(want, b.Filter); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_StartAfterEndFlagsBothDates(t *testing.T) {
	b := validate(t, newTestValidator(t, nil), url.Values{
		"agency":     {"93"},
		"sub_agency": {""},
		"audit_year": {""},
		"start_date": {"01/01/2020"},
		"end_date":   {"12/31/2019"},
	})

	if b.Valid() || b.Filter != nil {
		t.Fatalf("expected rejection, got filter %+v", b.Filter)
	}
	want := form.Errors{
		"start_date": {MsgStartDate},
		"end_date":   {MsgEndDate},
	}
	if diff := cmp.Diff(want, b.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !form.IsValidationError(b.Err()) {
		t.Fatalf("Err() = %v, want *form.ValidationError", b.Err())
	}
}

func TestValidate_OrderedDatesAccepted(t *testing.T) {
	v := newTestValidator(t, nil)
	for _, pair := range [][2]string{
		{"01/01/2019", "12/31/2019"},
		{"06/15/2020", "06/15/2020"},
		{"2019-01-01", "01/02/2019"},
		{"1/5/2020", "12/31/2020"},
	} {
		b := validate(t, v, url.Values{"agency": {"93"}, "start_date": {pair[0]}, "end_date": {pair[1]}})
		if !b.Valid() {
			t.Errorf("%v: unexpected errors %v", pair, b.Errors)
		}
	}
}

func TestValidate_FilteringRejectsRegardless(t *testing.T) {
	v := newTestValidator(t, nil)
	cases := []url.Values{
		{"agency": {"93"}, "filtering": {"1"}},
		{"filtering": {"7"}, "agency": {"nope"}, "start_date": {"bad"}, "page": {"-3"}},
		{"filtering": {"-1"}, "start_date": {"01/02/2020"}, "end_date": {"01/01/2020"}},
	}
	for _, raw := range cases {
		b := validate(t, v, raw)
		want := form.Errors{"filtering": {MsgFiltering}}
		if diff := cmp.Diff(want, b.Errors); diff != "" {
			t.Errorf("%v: errors mismatch (-want +got):\n%s", raw, diff)
		}
		if b.Filter != nil {
			t.Errorf("%v: filter produced while filtering", raw)
		}
	}
}

func TestValidate_FilteringZeroOrEmptyIsFine(t *testing.T) {
	v := newTestValidator(t, nil)
	for _, f := range []string{"0", ""} {
		b := validate(t, v, url.Values{"agency": {"93"}, "filtering": {f}})
		if !b.Valid() {
			t.Errorf("filtering=%q: unexpected errors %v", f, b.Errors)
		}
	}
	b := validate(t, v, url.Values{"agency": {"93"}, "filtering": {"yes"}})
	if diff := cmp.Diff([]string{form.MsgInteger}, b.Errors["filtering"]); diff != "" {
		t.Errorf("non-integer filtering (-want +got):\n%s", diff)
	}
}

func TestValidate_AuditYearBounds(t *testing.T) {
	v := newTestValidator(t, nil)
	cases := []struct {
		in   string
		want *int
		msg  string
	}{
		{"2017", ptr(2017), ""},
		{"2024", ptr(2024), ""},
		{"2016", nil, form.ChoiceMsg("2016")},
		{"2025", nil, form.ChoiceMsg("2025")},
		{"twenty", nil, form.MsgInteger},
		{"", nil, ""},
	}
	for _, c := range cases {
		b := validate(t, v, url.Values{"agency": {"93"}, "audit_year": {c.in}})
		if c.msg != "" {
			if diff := cmp.Diff([]string{c.msg}, b.Errors["audit_year"]); diff != "" {
				t.Errorf("audit_year=%q (-want +got):\n%s", c.in, diff)
			}
			continue
		}
		if !b.Valid() {
			t.Errorf("audit_year=%q: unexpected errors %v", c.in, b.Errors)
			continue
		}
		if diff := cmp.Diff(c.want, b.Filter.AuditYear); diff != "" {
			t.Errorf("audit_year=%q (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestValidate_StartYearOption(t *testing.T) {
	v, err := NewValidator(agency.Default(), &fakeSource{}, Options{FACStartYear: 2020})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	b := validate(t, v, url.Values{"agency": {"93"}, "audit_year": {"2020"}})
	if !b.Errors.Has("audit_year") {
		t.Fatalf("start year itself accepted")
	}
	b = validate(t, v, url.Values{"agency": {"93"}, "audit_year": {"2021"}})
	if !b.Valid() {
		t.Fatalf("first year after start rejected: %v", b.Errors)
	}
}

func TestValidate_SubAgency(t *testing.T) {
	src := &fakeSource{}
	v := newTestValidator(t, src)

	b := validate(t, v, url.Values{"agency": {"93"}, "sub_agency": {"CENTERS FOR DISEASE CONTROL"}})
	if !b.Valid() || b.Filter.SubAgency == nil || *b.Filter.SubAgency != "CENTERS FOR DISEASE CONTROL" {
		t.Fatalf("valid sub-agency rejected: %v %+v", b.Errors, b.Filter)
	}

	b = validate(t, v, url.Values{"agency": {"93"}, "sub_agency": {"ANY AGENCY"}})
	if diff := cmp.Diff([]string{form.ChoiceMsg("ANY AGENCY")}, b.Errors["sub_agency"]); diff != "" {
		t.Fatalf("foreign sub-agency (-want +got):\n%s", diff)
	}

	b = validate(t, v, url.Values{"agency": {"93"}, "sub_agency": {""}})
	if !b.Valid() || b.Filter.SubAgency != nil {
		t.Fatalf("empty sub-agency not normalized to nil: %+v", b.Filter)
	}
}

func TestValidate_BadAgencyFallsBackToDefaultChoices(t *testing.T) {
	src := &fakeSource{}
	v := newTestValidator(t, src)

	b := validate(t, v, url.Values{"agency": {"XX"}, "sub_agency": {"ANY AGENCY"}})
	if diff := cmp.Diff([]string{form.ChoiceMsg("XX")}, b.Errors["agency"]); diff != "" {
		t.Fatalf("agency errors (-want +got):\n%s", diff)
	}
	if b.Errors.Has("sub_agency") {
		t.Fatalf("sub-agency judged against wrong context: %v", b.Errors)
	}
	if got := src.calls[len(src.calls)-1]; got != "" {
		t.Fatalf("resolved prefix %q, want default", got)
	}
}

func TestValidate_MissingAgencyIsRequired(t *testing.T) {
	b := validate(t, newTestValidator(t, nil), url.Values{"page": {"2"}})
	if diff := cmp.Diff(form.Errors{"agency": {form.MsgRequired}}, b.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_AccumulatesFieldErrors(t *testing.T) {
	b := validate(t, newTestValidator(t, nil), url.Values{
		"agency":               {"93"},
		"page":                 {"0"},
		"sort":                 {"payroll"},
		"order":                {"up"},
		"fmt":                  {"pdf"},
		"findings":             {"maybe"},
		"agency_cog_oversight": {"sure"},
		"start_date":           {"13/45/2020"},
	})
	want := []string{"agency_cog_oversight", "findings", "fmt", "order", "page", "sort", "start_date"}
	if diff := cmp.Diff(want, b.Errors.Fields()); diff != "" {
		t.Fatalf("failing fields (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{form.MinValueMsg(1)}, b.Errors["page"]); diff != "" {
		t.Fatalf("page message (-want +got):\n%s", diff)
	}
}

func TestValidate_BooleansAndEnums(t *testing.T) {
	b := validate(t, newTestValidator(t, nil), url.Values{
		"agency":               {"93"},
		"findings":             {""},
		"agency_cog_oversight": {"true", "false"},
		"sort":                 {"num_findings"},
		"order":                {"desc"},
		"fmt":                  {"csv"},
		"page":                 {"4"},
	})
	if !b.Valid() {
		t.Fatalf("unexpected errors: %v", b.Errors)
	}
	want := &Filter{
		Agency:             "93",
		Page:               4,
		Findings:           false,
		AgencyCogOversight: true,
		Sort:               "num_findings",
		Order:              "desc",
		Format:             FormatCSV,
	}
	if diff := cmp.Diff(want, b.Filter); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_RoundTripIsIdempotent(t *testing.T) {
	v := newTestValidator(t, nil)
	filters := []*Filter{
		{Agency: "93", Page: 1, Findings: true, Format: FormatHTML},
		{
			Agency:             "93",
			SubAgency:          ptr("ADMINISTRATION FOR CHILDREN AND FAMILIES"),
			AuditYear:          ptr(2019),
			StartDate:          date(2019, time.January, 1),
			EndDate:            date(2019, time.December, 31),
			Page:               3,
			Findings:           false,
			AgencyCogOversight: true,
			Sort:               "fac_accepted_date",
			Order:              "asc",
			Format:             FormatCSV,
		},
	}
	for _, f := range filters {
		b := validate(t, v, f.Values())
		if !b.Valid() {
			t.Fatalf("round trip of %+v failed: %v", f, b.Errors)
		}
		if diff := cmp.Diff(f, b.Filter); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
		again := validate(t, v, b.Filter.Values())
		if diff := cmp.Diff(b.Filter, again.Filter); diff != "" {
			t.Fatalf("second round trip drifted (-want +got):\n%s", diff)
		}
	}
}

func TestValidate_SourceFailurePropagates(t *testing.T) {
	v := newTestValidator(t, &fakeSource{err: errors.New("too many connections")})

	b, err := v.Validate(context.Background(), url.Values{"agency": {"93"}}, testNow)
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("error = %v, want ErrSearchUnavailable", err)
	}
	if b != nil {
		t.Fatalf("partial result returned: %+v", b)
	}
}

func TestUnbound_FieldDescriptions(t *testing.T) {
	v := newTestValidator(t, &fakeSource{subs: map[string][]string{}})

	b, err := v.Unbound(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Unbound: %v", err)
	}
	if b.Filter != nil || len(b.Errors) != 0 {
		t.Fatalf("unbound form carries state: %+v", b)
	}

	sub := b.Form.Field(FieldSubAgency)
	if !sub.Disabled || len(sub.Choices) != 1 {
		t.Fatalf("sub-agency = %+v, want lone sentinel and disabled", sub)
	}

	var years []string
	for _, c := range b.Form.Field(FieldAuditYear).Choices {
		years = append(years, c.Value)
	}
	want := []string{"", "2024", "2023", "2022", "2021", "2020", "2019", "2018", "2017"}
	if diff := cmp.Diff(want, years); diff != "" {
		t.Fatalf("audit years (-want +got):\n%s", diff)
	}

	agencies := b.Form.Field(FieldAgency).Choices
	if agencies[0] != (form.Choice{}) || len(agencies) != len(agency.Default()) {
		t.Fatalf("agency choices not taken from catalog: %d", len(agencies))
	}
}

func TestFields_DoNotLeakBetweenRequests(t *testing.T) {
	v := newTestValidator(t, nil)

	a, err := v.Fields(context.Background(), "93", testNow)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	b, err := v.Fields(context.Background(), "10", testNow)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(a.Field(FieldSubAgency).Choices) != 3 || len(b.Field(FieldSubAgency).Choices) != 1 {
		t.Fatalf("choices shared across passes")
	}
	if a.Field(FieldSubAgency).Disabled || !b.Field(FieldSubAgency).Disabled {
		t.Fatalf("disabled flag shared across passes")
	}
}
