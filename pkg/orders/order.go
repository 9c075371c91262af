package orders

import (
	"fmt"
	"time"
)

// Status is the lifecycle status of an order. Only StatusApproved orders are
// candidates for distribution.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusApproved       Status = "APPROVED"
	StatusCompleted      Status = "COMPLETED"
	StatusRejected       Status = "REJECTED"
	StatusDelivered      Status = "DELIVERED"
	StatusReadyToShip    Status = "READY_TO_SHIP"
	StatusInDispatch     Status = "IN_DISPATCH"
	StatusReadyToDeliver Status = "READY_TO_DELIVER"
)

// Order is a read-only view of an order row. The publish flow never mutates
// orders; it only snapshots them into event payloads.
type Order struct {
	ID           int64
	Code         string
	BlockName    string
	Origin       string
	Destination  string
	User         string
	Status       Status
	DispatchDate *time.Time
	Volume       *float64
	Weight       *float64
	NumberOfBags int
}

// Label renders the one-line CLI presentation of a candidate.
func (o *Order) Label() string {
	return fmt.Sprintf("%d - Block: %s - Origin: %s - Destination: %s", o.ID, o.BlockName, o.Origin, o.Destination)
}

// ConsolidatedPayload snapshots the order into the distribution event
// payload. order_id is the one key consumers may rely on; everything else is
// informational and may grow without notice.
func (o *Order) ConsolidatedPayload() map[string]any {
	payload := map[string]any{
		"order_id":       o.ID,
		"code":           o.Code,
		"block":          o.BlockName,
		"origin":         o.Origin,
		"destination":    o.Destination,
		"user":           o.User,
		"number_of_bags": o.NumberOfBags,
	}
	if o.DispatchDate != nil {
		payload["dispatch_date"] = o.DispatchDate.UTC().Format(time.RFC3339)
	}
	if o.Volume != nil {
		payload["volume"] = *o.Volume
	}
	if o.Weight != nil {
		payload["weight"] = *o.Weight
	}
	return payload
}
