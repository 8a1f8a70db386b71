package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/database"
)

// OfferingRepo reads centre-specific test offerings (medical_test) and
// their catalog and centre details.  It never writes.
type OfferingRepo struct {
	db *sql.DB
}

// NewOfferingRepo returns a new OfferingRepo bound to the given database.
func NewOfferingRepo(db *sql.DB) *OfferingRepo { return &OfferingRepo{db: db} }

// QuoteRow is one offering joined with its catalog entry and centre, as
// needed to build a pre-booking summary.
type QuoteRow struct {
	MedicalTestID       string
	Price               decimal.Decimal
	TestName            string
	TypeOfTest          string
	Components          *string
	SpecialRequirements *string
	CentreID            string
	CentreName          string
	AddressLine         string
	Area                *string
	District            *string
	State               string
	Pincode             string
}

// PricesByIDs returns the current price of every offering id that exists.
// Ids absent from the result do not exist.  Duplicate ids are collapsed
// before the lookup, which is always a single statement.
func (r *OfferingRepo) PricesByIDs(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	unique := dedupe(ids)
	prices := make(map[string]decimal.Decimal, len(unique))
	if len(unique) == 0 {
		return prices, nil
	}
	q := `SELECT medical_test_id, price FROM medical_test WHERE medical_test_id IN ` + database.InClause(len(unique))
	rows, err := r.db.QueryContext(ctx, q, database.StringArgs(unique)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

// QuoteRows loads offering, catalog and centre details for the given ids.
// Rows come back grouped by centre and then by test name so callers can
// build deterministic summaries.
func (r *OfferingRepo) QuoteRows(ctx context.Context, ids []string) ([]QuoteRow, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []QuoteRow{}, nil
	}
	q := `SELECT mt.medical_test_id, mt.price,
	             tc.test_name, tc.type_of_test, tc.components, tc.special_requirements,
	             mc.medicalcentre_id, mc.medicalcentre_name, mc.address_line,
	             mc.area, mc.district, mc.state, mc.pincode
	      FROM medical_test mt
	      JOIN test_catalog tc ON tc.test_id = mt.test_id
	      JOIN medical_centre mc ON mc.medicalcentre_id = mt.medicalcentre_id
	      WHERE mt.medical_test_id IN ` + database.InClause(len(unique)) + `
	      ORDER BY mc.medicalcentre_name, mc.medicalcentre_id, tc.test_name, mt.medical_test_id`
	rows, err := r.db.QueryContext(ctx, q, database.StringArgs(unique)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]QuoteRow, 0, len(unique))
	for rows.Next() {
		var qr QuoteRow
		var components, special, area, district sql.NullString
		if err := rows.Scan(
			&qr.MedicalTestID, &qr.Price,
			&qr.TestName, &qr.TypeOfTest, &components, &special,
			&qr.CentreID, &qr.CentreName, &qr.AddressLine,
			&area, &district, &qr.State, &qr.Pincode,
		); err != nil {
			return nil, err
		}
		qr.Components = nullString(components)
		qr.SpecialRequirements = nullString(special)
		qr.Area = nullString(area)
		qr.District = nullString(district)
		out = append(out, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// dedupe keeps the first occurrence of every id and drops empty strings.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
