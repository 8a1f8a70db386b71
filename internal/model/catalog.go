package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Centre is a medical centre as read from the medical_centre table.  The
// centre lifecycle is owned by catalog management; this service only
// reads it.
type Centre struct {
	ID         string    // medical_centre.medicalcentre_id
	Name       string    // medical_centre.medicalcentre_name
	Address    string    // medical_centre.address_line
	Area       *string   // medical_centre.area (nullable)
	District   *string   // medical_centre.district (nullable)
	State      string    // medical_centre.state
	Pincode    string    // medical_centre.pincode
	IsVerified bool      // medical_centre.is_verified
	CreatedAt  time.Time // medical_centre.created_at
}

// Offering is a catalog test made purchasable at one centre at one price.
type Offering struct {
	ID                  string          // medical_test.medical_test_id
	TestID              string          // test_catalog.test_id
	CentreID            string          // medical_test.medicalcentre_id
	TestName            string          // test_catalog.test_name
	TypeOfTest          string          // test_catalog.type_of_test
	Components          *string         // test_catalog.components (nullable)
	SpecialRequirements *string         // test_catalog.special_requirements (nullable)
	Price               decimal.Decimal // medical_test.price
	CreatedAt           time.Time       // medical_test.created_at
}
