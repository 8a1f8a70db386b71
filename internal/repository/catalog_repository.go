// Package repository contains data access logic separated from HTTP handlers.
// This file serves the public catalog browse endpoints: verified medical
// centres and the tests each centre offers.  Only read queries live here;
// centre and catalog management belong to another service.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/labconnect/medtest-booking/internal/model"
)

// CatalogRepo encapsulates browse queries over medical_centre, test_catalog
// and medical_test.
type CatalogRepo struct {
	db *sql.DB // db is the shared connection pool
}

// NewCatalogRepo constructs a CatalogRepo with the provided DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// OfferingFilter narrows ListOfferingsByCentre.  Empty fields are ignored.
type OfferingFilter struct {
	TypeOfTest string // exact match on test_catalog.type_of_test
	Search     string // case-insensitive substring of test_catalog.test_name
	Limit      int
	Offset     int
}

// ListVerifiedCentres returns verified centres newest first together with
// the total number of verified centres.
func (r *CatalogRepo) ListVerifiedCentres(ctx context.Context, limit, offset int) ([]model.Centre, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medical_centre WHERE is_verified = TRUE`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT medicalcentre_id, medicalcentre_name, address_line, area, district, state, pincode, is_verified, created_at
	           FROM medical_centre
	           WHERE is_verified = TRUE
	           ORDER BY created_at DESC, medicalcentre_id
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	centres := make([]model.Centre, 0)
	for rows.Next() {
		var c model.Centre
		var area, district sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &area, &district, &c.State, &c.Pincode, &c.IsVerified, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		c.Area = nullString(area)
		c.District = nullString(district)
		centres = append(centres, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return centres, total, nil
}

// CentreExists reports whether a verified centre with the given id exists.
func (r *CatalogRepo) CentreExists(ctx context.Context, centreID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medical_centre WHERE medicalcentre_id = ? AND is_verified = TRUE`, centreID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListOfferingsByCentre returns the tests a centre offers, newest first,
// along with the total matching the filter.
func (r *CatalogRepo) ListOfferingsByCentre(ctx context.Context, centreID string, f OfferingFilter) ([]model.Offering, int, error) {
	where := ` FROM medical_test mt
	           JOIN test_catalog tc ON tc.test_id = mt.test_id
	           WHERE mt.medicalcentre_id = ?`
	args := []any{centreID}
	if f.TypeOfTest != "" {
		where += ` AND tc.type_of_test = ?`
		args = append(args, f.TypeOfTest)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND LOWER(tc.test_name) LIKE ?`
		args = append(args, "%"+strings.ToLower(s)+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT mt.medical_test_id, tc.test_id, mt.medicalcentre_id, tc.test_name, tc.type_of_test,
	             tc.components, tc.special_requirements, mt.price, mt.created_at` + where + `
	      ORDER BY mt.created_at DESC, mt.medical_test_id
	      LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Offering, 0)
	for rows.Next() {
		var o model.Offering
		var components, special sql.NullString
		if err := rows.Scan(&o.ID, &o.TestID, &o.CentreID, &o.TestName, &o.TypeOfTest,
			&components, &special, &o.Price, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		o.Components = nullString(components)
		o.SpecialRequirements = nullString(special)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
