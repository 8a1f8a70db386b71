package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/service"
)

// CatalogReader lists what the public can browse.
type CatalogReader interface {
	ListVerifiedCentres(ctx context.Context, limit, offset int) ([]model.Centre, int, error)
	CentreExists(ctx context.Context, centreID string) (bool, error)
	ListOfferingsByCentre(ctx context.Context, centreID string, f repository.OfferingFilter) ([]model.Offering, int, error)
}

// CatalogHandler serves the unauthenticated catalog routes.  Responses are
// safe to cache.
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type centreView struct {
	ID         string    `json:"medicalcentre_id"`
	Name       string    `json:"medicalcentre_name"`
	Address    string    `json:"address_line"`
	Area       *string   `json:"area"`
	District   *string   `json:"district"`
	State      string    `json:"state"`
	Pincode    string    `json:"pincode"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type offeringView struct {
	ID                  string    `json:"medical_test_id"`
	TestID              string    `json:"test_id"`
	TestName            string    `json:"test_name"`
	TypeOfTest          string    `json:"type_of_test"`
	Components          *string   `json:"components"`
	SpecialRequirements *string   `json:"special_requirements"`
	Price               float64   `json:"price"`
	CreatedAt           time.Time `json:"created_at"`
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return service.NormalizePage(page, limit)
}

func pagination(page, limit, total int) paginationView {
	return paginationView{Page: page, Limit: limit, Total: total, TotalPages: (total + limit - 1) / limit}
}

// ListCentres handles GET /api/v1/centres.
func (h *CatalogHandler) ListCentres(c echo.Context) error {
	page, limit := pageParams(c)
	centres, total, err := h.catalog.ListVerifiedCentres(c.Request().Context(), limit, (page-1)*limit)
	if err != nil {
		return fail(c, apperr.Internal("Failed to fetch medical centres", err))
	}
	out := make([]centreView, 0, len(centres))
	for _, ce := range centres {
		out = append(out, centreView(ce))
	}
	return respond(c, http.StatusOK, "Medical centres fetched successfully", echo.Map{
		"centres":    out,
		"pagination": pagination(page, limit, total),
	})
}

// ListCentreTests handles GET /api/v1/centres/:id/tests with optional
// type_of_test and search filters.
func (h *CatalogHandler) ListCentreTests(c echo.Context) error {
	ctx := c.Request().Context()
	centreID := c.Param("id")
	exists, err := h.catalog.CentreExists(ctx, centreID)
	if err != nil {
		return fail(c, apperr.Internal("Failed to fetch medical centre", err))
	}
	if !exists {
		return fail(c, apperr.NotFound("Medical centre not found", centreID))
	}

	page, limit := pageParams(c)
	offerings, total, err := h.catalog.ListOfferingsByCentre(ctx, centreID, repository.OfferingFilter{
		TypeOfTest: c.QueryParam("type_of_test"),
		Search:     c.QueryParam("search"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return fail(c, apperr.Internal("Failed to fetch tests", err))
	}
	out := make([]offeringView, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, offeringView{
			ID: o.ID, TestID: o.TestID, TestName: o.TestName, TypeOfTest: o.TypeOfTest,
			Components: o.Components, SpecialRequirements: o.SpecialRequirements,
			Price: o.Price.InexactFloat64(), CreatedAt: o.CreatedAt,
		})
	}
	return respond(c, http.StatusOK, "Tests fetched successfully", echo.Map{
		"tests":      out,
		"pagination": pagination(page, limit, total),
	})
}
