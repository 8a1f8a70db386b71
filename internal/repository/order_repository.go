package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/database"
	"github.com/labconnect/medtest-booking/internal/model"
)

// OrderRepo rebuilds the denormalised view of bookings from
// test_bookings, users, patients, addresses, test_booking_items,
// medical_test, test_catalog and medical_centre.  Every read path goes
// through the same query builder; only the filter differs.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderScope int

const (
	scopeUser orderScope = iota
	scopeBooking
	scopeAll
)

// OrderFilter selects which bookings a read returns.  Build one with
// OrdersByUser, OrderByID or AllOrders.
type OrderFilter struct {
	scope     orderScope
	userID    string
	bookingID string
	status    string
	limit     int
	offset    int
}

// OrdersByUser selects every booking of userID, optionally only those
// whose booking status equals status.
func OrdersByUser(userID, status string) OrderFilter {
	return OrderFilter{scope: scopeUser, userID: userID, status: status}
}

// OrderByID selects a single booking regardless of owner.
func OrderByID(bookingID string) OrderFilter {
	return OrderFilter{scope: scopeBooking, bookingID: bookingID}
}

// AllOrders selects one page of every booking.  A non-positive limit
// disables paging.
func AllOrders(limit, offset int) OrderFilter {
	return OrderFilter{scope: scopeAll, limit: limit, offset: offset}
}

// where renders the predicate for the filter.
func (f OrderFilter) where() (string, []any) {
	switch f.scope {
	case scopeUser:
		if f.status != "" {
			return ` WHERE tb.user_id = ? AND tb.status = ?`, []any{f.userID, f.status}
		}
		return ` WHERE tb.user_id = ?`, []any{f.userID}
	case scopeBooking:
		return ` WHERE tb.booking_id = ?`, []any{f.bookingID}
	default:
		return "", nil
	}
}

// OrderPatient is the patient block of an order.
type OrderPatient struct {
	ID       string
	FullName string
	Gender   string
	Relation string
}

// OrderAddress is the optional collection address of an order.
type OrderAddress struct {
	ID          string
	AddressLine string
	City        string
	State       string
	Pincode     string
}

// OrderItem is one test of an order with the catalog and centre names
// resolved.  Price is the snapshot stored on the line item.
type OrderItem struct {
	ItemID        string
	MedicalTestID string
	TestName      string
	TypeOfTest    string
	Price         decimal.Decimal
	Status        model.ItemStatus
	ReportLink    *string
	CentreID      string
	CentreName    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Order is the aggregated view of one booking.  TotalAmount and
// TotalTests are derived from Items.
type Order struct {
	BookingID     string
	UserID        string
	UserName      string
	UserEmail     string
	BookingDate   time.Time
	ScheduledDate time.Time
	Status        string
	PaymentStatus string
	PaymentMode   string
	TransactionID *string
	CreatedAt     time.Time
	Patient       OrderPatient
	Address       *OrderAddress
	Items         []OrderItem
	TotalAmount   decimal.Decimal
	TotalTests    int
}

const orderHeaderSelect = `SELECT tb.booking_id, tb.user_id, u.first_name, u.last_name, u.email,
       tb.booking_date, tb.scheduled_date, tb.status, tb.payment_status,
       tb.payment_mode, tb.transaction_id, tb.created_at,
       p.patient_id, p.full_name, p.gender, p.relation,
       a.address_id, a.address_line, a.city, a.state, a.pincode
FROM test_bookings tb
JOIN users u ON u.user_id = tb.user_id
JOIN patients p ON p.patient_id = tb.patient_id
LEFT JOIN addresses a ON a.address_id = tb.address_id`

const orderItemsSelect = `SELECT tbi.booking_id, tbi.item_id, tbi.medical_test_id, tc.test_name, tc.type_of_test,
       tbi.test_price, tbi.status, tbi.report_link, mc.medicalcentre_id, mc.medicalcentre_name,
       tbi.created_at, tbi.updated_at
FROM test_booking_items tbi
JOIN medical_test mt ON mt.medical_test_id = tbi.medical_test_id
JOIN test_catalog tc ON tc.test_id = mt.test_id
JOIN medical_centre mc ON mc.medicalcentre_id = mt.medicalcentre_id`

// buildHeaderQuery is the single place the header statement is assembled.
func buildHeaderQuery(f OrderFilter) (string, []any) {
	where, args := f.where()
	q := orderHeaderSelect + where + ` ORDER BY tb.created_at DESC, tb.booking_id DESC`
	if f.scope == scopeAll && f.limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.limit, f.offset)
	}
	return q, args
}

// Find returns the orders matching f, newest first, each with its items
// ordered by creation time.  An empty slice is returned when nothing
// matches.
func (r *OrderRepo) Find(ctx context.Context, f OrderFilter) ([]Order, error) {
	q, args := buildHeaderQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := make(map[string]int)
	for rows.Next() {
		o, err := scanOrderHeader(rows)
		if err != nil {
			return nil, err
		}
		index[o.BookingID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachItems(ctx, orders, index); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns the order for bookingID or ErrNotFound.
func (r *OrderRepo) Get(ctx context.Context, bookingID string) (*Order, error) {
	orders, err := r.Find(ctx, OrderByID(bookingID))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

// Count returns how many bookings match f, ignoring paging.
func (r *OrderRepo) Count(ctx context.Context, f OrderFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_bookings tb`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// attachItems loads the items of every order in one query and groups
// them onto their booking.  Totals are summed in decimal.
func (r *OrderRepo) attachItems(ctx context.Context, orders []Order, index map[string]int) error {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.BookingID)
	}
	q := orderItemsSelect + ` WHERE tbi.booking_id IN ` + database.InClause(len(ids)) +
		` ORDER BY tbi.booking_id, tbi.line_no`
	rows, err := r.db.QueryContext(ctx, q, database.StringArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID, status string
		var it OrderItem
		var link sql.NullString
		if err := rows.Scan(
			&bookingID, &it.ItemID, &it.MedicalTestID, &it.TestName, &it.TypeOfTest,
			&it.Price, &status, &link, &it.CentreID, &it.CentreName,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return err
		}
		idx, ok := index[bookingID]
		if !ok {
			continue
		}
		it.Status = model.ItemStatus(status)
		it.ReportLink = nullString(link)
		o := &orders[idx]
		o.Items = append(o.Items, it)
		o.TotalAmount = o.TotalAmount.Add(it.Price)
		o.TotalTests++
	}
	return rows.Err()
}

func scanOrderHeader(rows *sql.Rows) (Order, error) {
	var o Order
	var lastName, txID sql.NullString
	var addrID, addrLine, city, state, pincode sql.NullString
	if err := rows.Scan(
		&o.BookingID, &o.UserID, &o.UserName, &lastName, &o.UserEmail,
		&o.BookingDate, &o.ScheduledDate, &o.Status, &o.PaymentStatus,
		&o.PaymentMode, &txID, &o.CreatedAt,
		&o.Patient.ID, &o.Patient.FullName, &o.Patient.Gender, &o.Patient.Relation,
		&addrID, &addrLine, &city, &state, &pincode,
	); err != nil {
		return Order{}, err
	}
	if lastName.Valid && lastName.String != "" {
		o.UserName += " " + lastName.String
	}
	o.TransactionID = nullString(txID)
	if addrID.Valid {
		o.Address = &OrderAddress{
			ID:          addrID.String,
			AddressLine: addrLine.String,
			City:        city.String,
			State:       state.String,
			Pincode:     pincode.String,
		}
	}
	o.Items = []OrderItem{}
	o.TotalAmount = decimal.Zero
	return o, nil
}
