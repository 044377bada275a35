package repositories

import (
	"context"
	"testing"
	"time"

	"leadengine/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var valuationCols = []string{
	"id", "property_type", "locality", "neighborhood",
	"covered_area", "total_area", "bedrooms", "bathrooms",
	"property_condition", "extras",
	"estimated_value", "minimum_value", "maximum_value",
	"currency", "rule_source",
	"name", "surname", "email", "phone",
	"lead_id", "created_at",
}

func TestValuationCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO valuations").
		WithArgs("casa", "ciudad", nil, 120.0, nil, nil, nil, "good", nil,
			int64(144000), int64(122400), int64(165600), "USD", "42",
			nil, nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(8, 1))

	id, err := ValuationRepository{DB: db}.Create(context.Background(), nil, models.Valuation{
		PropertyType: "casa", Locality: "ciudad", CoveredArea: 120, Condition: "good",
		EstimatedValue: 144000, MinimumValue: 122400, MaximumValue: 165600,
		Currency: "USD", RuleSource: "42",
	})
	if err != nil || id != 8 {
		t.Fatalf("got %d %v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValuationGetByID(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("FROM valuations WHERE id=\\?").WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(valuationCols).AddRow(
			8, "casa", "ciudad", "centro", 120.0, 300.0, 3, 2, "good", `["pool","garage"]`,
			144000, 122400, 165600, "USD", "default", "Ana", "", "ana@example.com", "", 5, now))

	v, err := ValuationRepository{DB: db}.GetByID(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TotalArea == nil || *v.TotalArea != 300 || v.Bedrooms == nil || *v.Bedrooms != 3 {
		t.Fatalf("optional fields not mapped: %+v", v)
	}
	if len(v.Extras) != 2 || v.LeadID == nil || *v.LeadID != 5 {
		t.Fatalf("unexpected valuation %+v", v)
	}
}

func TestValuationStats(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM valuations WHERE locality=\\?").
		WithArgs("ciudad").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectQuery("SELECT property_type, COUNT\\(\\*\\), COALESCE\\(AVG\\(estimated_value\\),0\\)").
		WithArgs("ciudad").
		WillReturnRows(sqlmock.NewRows([]string{"property_type", "n", "avg"}).
			AddRow("casa", 2, 132000.5).
			AddRow("departamento", 1, 90000.0))
	mock.ExpectQuery("SELECT locality, COUNT\\(\\*\\)").
		WithArgs("ciudad").
		WillReturnRows(sqlmock.NewRows([]string{"locality", "n", "avg"}).AddRow("ciudad", 3, 118000.33))

	stats, err := ValuationRepository{DB: db}.Stats(context.Background(), models.ValuationFilter{Locality: "ciudad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d", stats.Total)
	}
	if got := stats.ByType["casa"]; got.Count != 2 || got.Average != 132001 {
		t.Fatalf("casa = %+v", got)
	}
	if got := stats.ByLocality["ciudad"]; got.Average != 118000 {
		t.Fatalf("ciudad = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValuationListDefaultsLimit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM valuations ORDER BY created_at DESC, id DESC LIMIT \\?").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(valuationCols))

	out, err := ValuationRepository{DB: db}.List(context.Background(), models.ValuationFilter{})
	if err != nil || len(out) != 0 {
		t.Fatalf("got %v %v", out, err)
	}
}
