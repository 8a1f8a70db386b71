package model

// ItemStatus is the fulfillment stage of a booking line item.
type ItemStatus string

const (
	StatusCollectionDue  ItemStatus = "sample collection due"
	StatusCollected      ItemStatus = "sample collected"
	StatusProcessing     ItemStatus = "sample processing"
	StatusReportReady    ItemStatus = "report generated"
	StatusReportDelivery ItemStatus = "report delivery"
	StatusCancelled      ItemStatus = "Cancelled"
)

// FulfillmentOrder lists the forward stages in order.  Cancelled is a side
// branch and is not part of the sequence.
var FulfillmentOrder = []ItemStatus{
	StatusCollectionDue,
	StatusCollected,
	StatusProcessing,
	StatusReportReady,
	StatusReportDelivery,
}

// InitialItemStatus is the status every new line item starts in.
const InitialItemStatus = StatusCollectionDue

// ParseItemStatus returns the status for an exact, case-sensitive match.
func ParseItemStatus(s string) (ItemStatus, bool) {
	st := ItemStatus(s)
	if st == StatusCancelled {
		return st, true
	}
	for _, known := range FulfillmentOrder {
		if known == st {
			return st, true
		}
	}
	return "", false
}

// Rank returns the position of s in FulfillmentOrder, or -1 for Cancelled
// and unknown values.
func (s ItemStatus) Rank() int {
	for i, known := range FulfillmentOrder {
		if known == s {
			return i
		}
	}
	return -1
}

// AllItemStatuses returns every accepted status value.
func AllItemStatuses() []ItemStatus {
	out := make([]ItemStatus, 0, len(FulfillmentOrder)+1)
	out = append(out, FulfillmentOrder...)
	return append(out, StatusCancelled)
}
