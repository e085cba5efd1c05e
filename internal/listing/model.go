// internal/listing/model.go
//
// Assistance-listing row model and program-number helpers.
//
// Context
// -------
// Structured catalog sections are JSON columns.  They scan into
// sqlx's types.NullJSONText, which keeps the document verbatim and records
// whether the column was NULL (`Valid`).  A NULL column marshals as `{}`.
package listing

import (
	"regexp"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Record mirrors one row in the `assistance_listing` table.  Rows are bulk
// loaded by the FAC ETL; this service only reads them.
//
// Numbers in the comments are the catalog section codes the text was taken
// from.  Structured sections are stored as JSON and kept opaque here.
type Record struct {
	ID                         int64              `db:"id"                          json:"id"`
	ProgramTitle               string             `db:"program_title"               json:"program_title"`
	ProgramNumber              string             `db:"program_number"              json:"program_number"`
	PopularName                string             `db:"popular_name"                json:"popular_name"`                // 020
	FederalAgency              string             `db:"federal_agency"              json:"federal_agency"`              // 030
	Authorization              types.NullJSONText `db:"authorization"               json:"authorization"`               // 040
	Objectives                 string             `db:"objectives"                  json:"objectives"`                  // 050
	AssistanceTypes            string             `db:"assistance_types"            json:"assistance_types"`            // 060
	UsesRestrictions           string             `db:"uses_restrictions"           json:"uses_restrictions"`           // 070
	ApplicantEligibility       string             `db:"applicant_eligibility"       json:"applicant_eligibility"`       // 081
	BeneficiaryEligibility     string             `db:"beneficiary_eligibility"     json:"beneficiary_eligibility"`     // 082
	CredentialsDocumentation   types.NullJSONText `db:"credentials_documentation"   json:"credentials_documentation"`   // 083
	PreapplicationCoordination types.NullJSONText `db:"preapplication_coordination" json:"preapplication_coordination"` // 091
	ApplicationProcedures      types.NullJSONText `db:"application_procedures"      json:"application_procedures"`      // 092
	AwardProcedure             string             `db:"award_procedure"             json:"award_procedure"`             // 093
	Deadlines                  types.NullJSONText `db:"deadlines"                   json:"deadlines"`                   // 094
	ApprovalTime               string             `db:"approval_time"               json:"approval_time"`               // 095
	Appeals                    string             `db:"appeals"                     json:"appeals"`                     // 096
	Renewals                   string             `db:"renewals"                    json:"renewals"`                    // 097
	Requirements               types.NullJSONText `db:"requirements"                json:"requirements"`                // 101
	AssistancePeriod           types.NullJSONText `db:"assistance_period"           json:"assistance_period"`           // 102, nullable
	Reports                    types.NullJSONText `db:"reports"                     json:"reports"`                     // 111
	Audits                     types.NullJSONText `db:"audits"                      json:"audits"`                      // 112
	Records                    string             `db:"records"                     json:"records"`                     // 113
	AccountIdentification      string             `db:"account_identification"      json:"account_identification"`      // 121
	Obligations                string             `db:"obligations"                 json:"obligations"`                 // 122
	AssistanceRange            string             `db:"assistance_range"            json:"assistance_range"`            // 123
	ProgramAccomplishments     types.NullJSONText `db:"program_accomplishments"     json:"program_accomplishments"`     // 130
	Regulations                string             `db:"regulations"                 json:"regulations"`                 // 140
	RegionalLocalOffice        types.NullJSONText `db:"regional_local_office"       json:"regional_local_office"`       // 151
	HeadquartersOffice         string             `db:"headquarters_office"         json:"headquarters_office"`         // 152
	Website                    string             `db:"website"                     json:"website"`                     // 153
	RelatedPrograms            string             `db:"related_programs"            json:"related_programs"`            // 160
	FundedProjectExamples      string             `db:"funded_project_examples"     json:"funded_project_examples"`     // 170
	SelectionCriteria          string             `db:"selection_criteria"          json:"selection_criteria"`          // 180
	PublishedDate              time.Time          `db:"published_date"              json:"published_date"`
	ParentShortname            string             `db:"parent_shortname"            json:"parent_shortname"`
	SamGovURL                  string             `db:"sam_gov_url"                 json:"sam_gov_url"`
	Recovery                   bool               `db:"recovery"                    json:"recovery"`
}

func (r Record) String() string { return r.ProgramNumber + " " + r.ProgramTitle }

// AgencyPrefix returns the agency part of the program number, kept as text.
func (r Record) AgencyPrefix() string { return AgencyPrefix(r.ProgramNumber) }

var programNumberRE = regexp.MustCompile(`^[0-9]{2}\.[0-9A-Za-z]{3}$`)

// ValidProgramNumber reports whether s has the NN.NNN shape.  The suffix may
// hold letters (e.g. 93.U01), the prefix may not.
func ValidProgramNumber(s string) bool { return programNumberRE.MatchString(s) }

// AgencyPrefix returns the first two characters of a program number.
func AgencyPrefix(programNumber string) string {
	if len(programNumber) < 2 {
		return programNumber
	}
	return programNumber[:2]
}
