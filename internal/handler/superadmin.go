package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/service"
	"github.com/labconnect/medtest-booking/internal/storage"
)

// StatusAdvancer moves a line item to a new status.
type StatusAdvancer interface {
	Advance(ctx context.Context, in service.AdvanceInput) (*model.BookingLineItem, error)
}

// SuperadminHandler serves the order management routes.
type SuperadminHandler struct {
	orders   OrderReader
	pipeline StatusAdvancer
}

func NewSuperadminHandler(orders OrderReader, pipeline StatusAdvancer) *SuperadminHandler {
	return &SuperadminHandler{orders: orders, pipeline: pipeline}
}

// ListOrders handles GET /api/v1/superadmin/orders?page&limit.
func (h *SuperadminHandler) ListOrders(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	orders, p, err := h.orders.ListAll(c.Request().Context(), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Orders fetched successfully", echo.Map{
		"orders":     toOrderViews(orders),
		"pagination": toPagination(p),
	})
}

// GetOrder handles GET /api/v1/superadmin/orders/:id.
func (h *SuperadminHandler) GetOrder(c echo.Context) error {
	o, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Order fetched successfully", toOrderView(*o))
}

type statusRequest struct {
	ItemID string `json:"item_id" form:"item_id" validate:"required"`
	Status string `json:"status" form:"status" validate:"required"`
}

// AdvanceStatus handles PATCH /api/v1/superadmin/orders/:booking_id/status.
// The body is JSON {item_id, status}, or multipart with the same fields
// and an optional "report" file.
func (h *SuperadminHandler) AdvanceStatus(c echo.Context) error {
	var req statusRequest
	var report *storage.Artifact

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		req.ItemID = c.FormValue("item_id")
		req.Status = c.FormValue("status")
		fh, err := c.FormFile("report")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return badRequest(c, "invalid report upload")
		default:
			f, err := fh.Open()
			if err != nil {
				return badRequest(c, "invalid report upload")
			}
			defer f.Close()
			report = &storage.Artifact{
				Name:        fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Size:        fh.Size,
				Body:        f,
			}
		}
		if err := c.Validate(&req); err != nil {
			return fail(c, err)
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	item, err := h.pipeline.Advance(c.Request().Context(), service.AdvanceInput{
		BookingID: c.Param("booking_id"),
		ItemID:    req.ItemID,
		Status:    req.Status,
		Report:    report,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Test status updated successfully", toItemView(*item))
}
