package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/apperr"
)

// Resolution is the outcome of a batch price lookup.
type Resolution struct {
	Prices  map[string]decimal.Decimal
	Missing []string // unresolved ids in request order, without duplicates
}

// PricingResolver maps offering ids to their current price.
type PricingResolver struct {
	src PriceSource
}

func NewPricingResolver(src PriceSource) *PricingResolver {
	return &PricingResolver{src: src}
}

// Resolve looks up every id with a single query.  Duplicates are allowed.
// Callers must reject the request when Missing is not empty.
func (p *PricingResolver) Resolve(ctx context.Context, ids []string) (*Resolution, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("At least one test must be selected")
	}
	prices, err := p.src.PricesByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to resolve test prices", err)
	}
	return &Resolution{Prices: prices, Missing: missingIDs(ids, func(id string) bool {
		_, ok := prices[id]
		return ok
	})}, nil
}

// QuoteTest is one test line of a quote.
type QuoteTest struct {
	MedicalTestID       string
	TestName            string
	TypeOfTest          string
	Components          *string
	SpecialRequirements *string
	Price               decimal.Decimal
}

// QuoteCentre groups the quoted tests offered by one centre.
type QuoteCentre struct {
	CentreID    string
	CentreName  string
	AddressLine string
	Area        *string
	District    *string
	State       string
	Pincode     string
	Tests       []QuoteTest
	Subtotal    decimal.Decimal
}

// Quote is a pre-booking price summary.  Nothing is written.
type Quote struct {
	Centres        []QuoteCentre
	TotalPrice     decimal.Decimal
	CentreCount    int
	MissingTestIDs []string
}

// Quote groups the requested offerings by centre and totals them.  Unknown
// ids do not fail the quote; they are listed in MissingTestIDs.
func (p *PricingResolver) Quote(ctx context.Context, ids []string) (*Quote, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("At least one test must be selected")
	}
	rows, err := p.src.QuoteRows(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to build booking summary", err)
	}

	q := &Quote{Centres: []QuoteCentre{}, TotalPrice: decimal.Zero}
	found := make(map[string]bool, len(rows))
	index := make(map[string]int)
	for _, r := range rows {
		found[r.MedicalTestID] = true
		i, ok := index[r.CentreID]
		if !ok {
			i = len(q.Centres)
			index[r.CentreID] = i
			q.Centres = append(q.Centres, QuoteCentre{
				CentreID:    r.CentreID,
				CentreName:  r.CentreName,
				AddressLine: r.AddressLine,
				Area:        r.Area,
				District:    r.District,
				State:       r.State,
				Pincode:     r.Pincode,
				Tests:       []QuoteTest{},
				Subtotal:    decimal.Zero,
			})
		}
		c := &q.Centres[i]
		c.Tests = append(c.Tests, QuoteTest{
			MedicalTestID:       r.MedicalTestID,
			TestName:            r.TestName,
			TypeOfTest:          r.TypeOfTest,
			Components:          r.Components,
			SpecialRequirements: r.SpecialRequirements,
			Price:               r.Price,
		})
		c.Subtotal = c.Subtotal.Add(r.Price)
		q.TotalPrice = q.TotalPrice.Add(r.Price)
	}
	q.CentreCount = len(q.Centres)
	q.MissingTestIDs = missingIDs(ids, func(id string) bool { return found[id] })
	return q, nil
}

// missingIDs returns ids for which known is false, deduplicated, in order.
func missingIDs(ids []string, known func(string) bool) []string {
	missing := []string{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !known(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
