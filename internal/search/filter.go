// internal/search/filter.go
//
// Validated search criteria.
//
// Context
// -------
// Filter is the typed result of a successful validation pass.  Values turns
// it back into query parameters for permalinks and pagination; feeding them
// through the validator again yields the same Filter.
package search

import (
	"net/url"
	"strconv"
	"time"

	"github.com/yanizio/distiller/internal/form"
)

// Inbound field names.
const (
	FieldAgency             = "agency"
	FieldSubAgency          = "sub_agency"
	FieldAuditYear          = "audit_year"
	FieldStartDate          = "start_date"
	FieldEndDate            = "end_date"
	FieldPage               = "page"
	FieldFindings           = "findings"
	FieldFiltering          = "filtering"
	FieldAgencyCogOversight = "agency_cog_oversight"
	FieldSort               = "sort"
	FieldOrder              = "order"
	FieldFormat             = "fmt"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatCSV  = "csv"
)

// Filter is a validated search request.  Optional values are nil when unset.
// The drill-down marker is never part of a valid Filter.
type Filter struct {
	Agency             string     `json:"agency"`
	SubAgency          *string    `json:"sub_agency"`
	AuditYear          *int       `json:"audit_year"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	Page               int        `json:"page"`
	Findings           bool       `json:"findings"`
	AgencyCogOversight bool       `json:"agency_cog_oversight"`
	Sort               string     `json:"sort,omitempty"`
	Order              string     `json:"order,omitempty"`
	Format             string     `json:"fmt"`
}

// Values serializes f back into raw form fields.  Validating the result
// yields an equal Filter.
func (f *Filter) Values() url.Values {
	v := url.Values{}
	v.Set(FieldAgency, f.Agency)
	if f.SubAgency != nil {
		v.Set(FieldSubAgency, *f.SubAgency)
	}
	if f.AuditYear != nil {
		v.Set(FieldAuditYear, strconv.Itoa(*f.AuditYear))
	}
	if f.StartDate != nil {
		v.Set(FieldStartDate, form.FormatDate(*f.StartDate))
	}
	if f.EndDate != nil {
		v.Set(FieldEndDate, form.FormatDate(*f.EndDate))
	}
	v.Set(FieldPage, strconv.Itoa(f.Page))
	v.Set(FieldFindings, strconv.FormatBool(f.Findings))
	v.Set(FieldAgencyCogOversight, strconv.FormatBool(f.AgencyCogOversight))
	if f.Sort != "" {
		v.Set(FieldSort, f.Sort)
	}
	if f.Order != "" {
		v.Set(FieldOrder, f.Order)
	}
	v.Set(FieldFormat, f.Format)
	return v
}
