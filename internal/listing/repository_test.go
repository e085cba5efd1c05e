// internal/listing/repository_test.go
//
// Unit-tests for the listing repository using sqlmock.
//
// Run: go test ./internal/listing -v

package listing

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T, driver string) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, driver)), mock
}

const distinctQ = `SELECT federal_agency FROM assistance_listing WHERE program_number LIKE ? ` +
	`AND federal_agency <> '' GROUP BY federal_agency ORDER BY MIN(program_title), federal_agency`

func TestDistinctSubAgencies(t *testing.T) {
	repo, mock := newMock(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(distinctQ)).
		WithArgs("93%").
		WillReturnRows(sqlmock.NewRows([]string{"federal_agency"}).
			AddRow("ADMINISTRATION FOR CHILDREN AND FAMILIES").
			AddRow("CENTERS FOR DISEASE CONTROL AND PREVENTION"))

	got, err := repo.DistinctSubAgencies(context.Background(), "93")
	if err != nil {
		t.Fatalf("DistinctSubAgencies error: %v", err)
	}
	if len(got) != 2 || got[0] != "ADMINISTRATION FOR CHILDREN AND FAMILIES" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDistinctSubAgencies_PostgresBindvars(t *testing.T) {
	repo, mock := newMock(t, "pgx")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE program_number LIKE $1")).
		WithArgs("%").
		WillReturnRows(sqlmock.NewRows([]string{"federal_agency"}))

	got, err := repo.DistinctSubAgencies(context.Background(), "")
	if err != nil {
		t.Fatalf("DistinctSubAgencies error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDistinctSubAgencies_Error(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	boom := errors.New("connection refused")

	mock.ExpectQuery(regexp.QuoteMeta(distinctQ)).WithArgs("10%").WillReturnError(boom)

	if _, err := repo.DistinctSubAgencies(context.Background(), "10"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestForPrefix(t *testing.T) {
	repo, mock := newMock(t, "mysql")

	mock.ExpectQuery(`FROM assistance_listing al\s+WHERE program_number LIKE \?\s+ORDER BY program_title`).
		WithArgs("84%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "program_title", "program_number", "authorization"}).
			AddRow(1, "Adult Education", "84.002", []byte(`{"act":"WIOA"}`)).
			AddRow(2, "Title I Grants", "84.010", nil))

	got, err := repo.ForPrefix(context.Background(), "84")
	if err != nil {
		t.Fatalf("ForPrefix error: %v", err)
	}
	if len(got) != 2 || got[0].String() != "84.002 Adult Education" {
		t.Fatalf("unexpected result: %#v", got)
	}
	var auth struct{ Act string }
	if err := got[0].Authorization.Unmarshal(&auth); err != nil || auth.Act != "WIOA" {
		t.Fatalf("authorization decode = %+v, %v", auth, err)
	}
	if !got[0].Authorization.Valid || got[1].Authorization.Valid {
		t.Fatalf("validity = %v, %v; want true, false", got[0].Authorization.Valid, got[1].Authorization.Valid)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByProgramNumber(t *testing.T) {
	repo, mock := newMock(t, "mysql")
	published := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE program_number = \?\s+LIMIT 1`).
		WithArgs("93.558").
		WillReturnRows(sqlmock.NewRows([]string{"program_number", "program_title", "federal_agency", "published_date", "recovery"}).
			AddRow("93.558", "Temporary Assistance for Needy Families", "ADMINISTRATION FOR CHILDREN AND FAMILIES", published, false))

	rec, err := repo.ByProgramNumber(context.Background(), "93.558")
	if err != nil {
		t.Fatalf("ByProgramNumber error: %v", err)
	}
	if rec.AgencyPrefix() != "93" || !rec.PublishedDate.Equal(published) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestByProgramNumber_NotFound(t *testing.T) {
	repo, mock := newMock(t, "mysql")

	mock.ExpectQuery(`WHERE program_number = \?`).
		WithArgs("99.999").
		WillReturnRows(sqlmock.NewRows([]string{"program_number"}))

	if _, err := repo.ByProgramNumber(context.Background(), "99.999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock := newMock(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM assistance_listing`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2214))

	n, err := repo.Count(context.Background())
	if err != nil || n != 2214 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestLikePrefix_EscapesMetacharacters(t *testing.T) {
	cases := map[string]string{
		"93":   "93%",
		"":     "%",
		"9_":   `9\_%`,
		"1%":   `1\%%`,
		`a\b`:  `a\\b%`,
		"00":   "00%",
		"93.5": "93.5%",
	}
	for in, want := range cases {
		if got := likePrefix(in); got != want {
			t.Errorf("likePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProgramNumberHelpers(t *testing.T) {
	for in, want := range map[string]bool{
		"93.558": true, "93.U01": true, "01.001": true,
		"9.558": false, "AB.123": false, "93558": false, "93.5581": false,
	} {
		if got := ValidProgramNumber(in); got != want {
			t.Errorf("ValidProgramNumber(%q) = %v", in, got)
		}
	}
	if AgencyPrefix("01.001") != "01" {
		t.Errorf("leading zero lost")
	}
	if AgencyPrefix("9") != "9" {
		t.Errorf("short input mangled")
	}
}

func TestRecord_JSONColumnsMarshal(t *testing.T) {
	var rec Record
	if err := rec.Authorization.Scan([]byte(`{"act":"WIOA"}`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := rec.AssistancePeriod.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"authorization":{"act":"WIOA"}`, `"assistance_period":{}`, `"deadlines":null`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("%s missing %s", b, want)
		}
	}
}
