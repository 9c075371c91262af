package orders

import "context"

// Repository supplies the working set of orders for the publish flow.
type Repository interface {
	// FindByStatus returns orders in the given status, in storage order.
	// No matches is an empty slice, not an error.
	FindByStatus(ctx context.Context, status Status) ([]Order, error)
	// Find returns the order with the given ID, or nil when it no longer
	// exists (another actor may have consumed it).
	Find(ctx context.Context, id int64) (*Order, error)
}
