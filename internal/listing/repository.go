// internal/listing/repository.go
//
// Read-only query helpers for the assistance listing table.
//
// Context
// -------
// The FAC ETL bulk-loads `assistance_listing`; the search form only needs
// three questions answered:
//
//  1. Which sub-agencies publish programs under prefix P?  → DistinctSubAgencies
//  2. Which programs sit under prefix P, by title?         → ForPrefix
//  3. What does program NN.NNN say?                        → ByProgramNumber
//
// Queries are written with `?` bindvars and rebound through sqlx, so the
// same text runs on MySQL and Postgres (pgx) pools.  Nothing here writes,
// so a single Repository is safe for concurrent use without locking.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("listing: not found")

// Repository wraps a read pool.  Zero value is unusable; use NewRepository.
type Repository struct {
	db *sqlx.DB
}

// NewRepository binds queries to db.
func NewRepository(db *sqlx.DB) *Repository { return &Repository{db: db} }

// AUTHORIZATION is reserved in SQL; the qualified form needs no quoting on
// either dialect.
const recordColumns = `id, program_title, program_number, popular_name, federal_agency,
       al.authorization, objectives, assistance_types, uses_restrictions,
       applicant_eligibility, beneficiary_eligibility, credentials_documentation,
       preapplication_coordination, application_procedures, award_procedure,
       deadlines, approval_time, appeals, renewals, requirements,
       assistance_period, reports, audits, records, account_identification,
       obligations, assistance_range, program_accomplishments, regulations,
       regional_local_office, headquarters_office, website, related_programs,
       funded_project_examples, selection_criteria, published_date,
       parent_shortname, sam_gov_url, recovery`

// DistinctSubAgencies returns each distinct, non-empty federal agency among
// programs whose number starts with prefix.  Groups are ordered by their
// first program title, then by name, so the list follows title order while
// every value stays unique.  An empty prefix matches every program.
func (r *Repository) DistinctSubAgencies(ctx context.Context, prefix string) ([]string, error) {
	const q = `SELECT federal_agency
                 FROM assistance_listing
                WHERE program_number LIKE ?
                  AND federal_agency <> ''
             GROUP BY federal_agency
             ORDER BY MIN(program_title), federal_agency`

	var out []string
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("distinct sub-agencies for %q: %w", prefix, err)
	}
	return out, nil
}

// ForPrefix returns every program under prefix ordered by title.
func (r *Repository) ForPrefix(ctx context.Context, prefix string) ([]Record, error) {
	q := `SELECT ` + recordColumns + `
            FROM assistance_listing al
           WHERE program_number LIKE ?
        ORDER BY program_title`

	var out []Record
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("listings for %q: %w", prefix, err)
	}
	return out, nil
}

// ByProgramNumber fetches one program.  ErrNotFound when absent.
func (r *Repository) ByProgramNumber(ctx context.Context, number string) (*Record, error) {
	q := `SELECT ` + recordColumns + `
            FROM assistance_listing al
           WHERE program_number = ?
           LIMIT 1`

	var rec Record
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(q), number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", number, err)
	}
	return &rec, nil
}

// Count returns the number of loaded programs.  Used as a boot-time sanity
// check.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM assistance_listing`); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// likePrefix escapes LIKE metacharacters in prefix and appends the wildcard.
// Backslash is the default escape character on both MySQL and Postgres.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string { return likeEscaper.Replace(prefix) + "%" }
