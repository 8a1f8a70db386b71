package handler

import (
	"time"

	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/service"
)

// Response shapes.  Money is summed in decimal and only converted to
// float64 here.

type userView struct {
	ID    string `json:"user_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type patientView struct {
	ID       string `json:"patient_id"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Relation string `json:"relation"`
}

type addressView struct {
	ID          string `json:"address_id"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

type centreRef struct {
	ID   string `json:"medicalcentre_id"`
	Name string `json:"medicalcentre_name"`
}

type orderItemView struct {
	ItemID        string    `json:"item_id"`
	MedicalTestID string    `json:"medical_test_id"`
	TestName      string    `json:"test_name"`
	TypeOfTest    string    `json:"type_of_test"`
	Price         float64   `json:"test_price"`
	Status        string    `json:"status"`
	ReportLink    *string   `json:"report_link"`
	Centre        centreRef `json:"medical_centre"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type orderView struct {
	BookingID     string          `json:"booking_id"`
	User          userView        `json:"user"`
	Patient       patientView     `json:"patient"`
	Address       *addressView    `json:"address"`
	BookingDate   time.Time       `json:"booking_date"`
	ScheduledDate string          `json:"scheduled_date"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMode   string          `json:"payment_mode"`
	TransactionID *string         `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Tests         []orderItemView `json:"tests"`
	TotalAmount   float64         `json:"total_amount"`
	TotalTests    int             `json:"total_tests"`
}

func toOrderView(o repository.Order) orderView {
	v := orderView{
		BookingID:     o.BookingID,
		User:          userView{ID: o.UserID, Name: o.UserName, Email: o.UserEmail},
		Patient:       patientView(o.Patient),
		BookingDate:   o.BookingDate,
		ScheduledDate: o.ScheduledDate.Format(time.DateOnly),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMode:   o.PaymentMode,
		TransactionID: o.TransactionID,
		CreatedAt:     o.CreatedAt,
		Tests:         make([]orderItemView, 0, len(o.Items)),
		TotalAmount:   o.TotalAmount.InexactFloat64(),
		TotalTests:    o.TotalTests,
	}
	if o.Address != nil {
		a := addressView(*o.Address)
		v.Address = &a
	}
	for _, it := range o.Items {
		v.Tests = append(v.Tests, orderItemView{
			ItemID:        it.ItemID,
			MedicalTestID: it.MedicalTestID,
			TestName:      it.TestName,
			TypeOfTest:    it.TypeOfTest,
			Price:         it.Price.InexactFloat64(),
			Status:        string(it.Status),
			ReportLink:    it.ReportLink,
			Centre:        centreRef{ID: it.CentreID, Name: it.CentreName},
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
		})
	}
	return v
}

func toOrderViews(orders []repository.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

type itemView struct {
	ItemID        string    `json:"item_id"`
	BookingID     string    `json:"booking_id"`
	MedicalTestID string    `json:"medical_test_id"`
	Price         float64   `json:"test_price"`
	Status        string    `json:"status"`
	ReportLink    *string   `json:"report_link"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toItemView(it model.BookingLineItem) itemView {
	return itemView{
		ItemID:        it.ID,
		BookingID:     it.BookingID,
		MedicalTestID: it.MedicalTestID,
		Price:         it.Price.InexactFloat64(),
		Status:        string(it.Status),
		ReportLink:    it.ReportLink,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

type quoteTestView struct {
	MedicalTestID       string  `json:"medical_test_id"`
	TestName            string  `json:"test_name"`
	TypeOfTest          string  `json:"type_of_test"`
	Components          *string `json:"components"`
	SpecialRequirements *string `json:"special_requirements"`
	Price               float64 `json:"price"`
}

type quoteCentreView struct {
	ID          string          `json:"medicalcentre_id"`
	Name        string          `json:"medicalcentre_name"`
	AddressLine string          `json:"address_line"`
	Area        *string         `json:"area"`
	District    *string         `json:"district"`
	State       string          `json:"state"`
	Pincode     string          `json:"pincode"`
	Tests       []quoteTestView `json:"tests"`
	Subtotal    float64         `json:"subtotal"`
}

type quoteView struct {
	Centres        []quoteCentreView `json:"centres"`
	TotalPrice     float64           `json:"total_price"`
	CentreCount    int               `json:"centre_count"`
	MissingTestIDs []string          `json:"missing_test_ids"`
}

func toQuoteView(q *service.Quote) quoteView {
	v := quoteView{
		Centres:        make([]quoteCentreView, 0, len(q.Centres)),
		TotalPrice:     q.TotalPrice.InexactFloat64(),
		CentreCount:    q.CentreCount,
		MissingTestIDs: q.MissingTestIDs,
	}
	for _, c := range q.Centres {
		cv := quoteCentreView{
			ID: c.CentreID, Name: c.CentreName, AddressLine: c.AddressLine,
			Area: c.Area, District: c.District, State: c.State, Pincode: c.Pincode,
			Tests:    make([]quoteTestView, 0, len(c.Tests)),
			Subtotal: c.Subtotal.InexactFloat64(),
		}
		for _, t := range c.Tests {
			cv.Tests = append(cv.Tests, quoteTestView{
				MedicalTestID: t.MedicalTestID, TestName: t.TestName, TypeOfTest: t.TypeOfTest,
				Components: t.Components, SpecialRequirements: t.SpecialRequirements,
				Price: t.Price.InexactFloat64(),
			})
		}
		v.Centres = append(v.Centres, cv)
	}
	return v
}

type paginationView struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func toPagination(p service.Page) paginationView {
	return paginationView(p)
}
