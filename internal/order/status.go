package order

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

var validTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func (s Status) CanTransitionTo(to Status) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in this state may still be cancelled.
func (s Status) CanCancel() bool {
	return s != StatusDelivered && s != StatusCancelled
}

// StockCommitted reports whether stock has been decremented for an order in
// this state. Orders awaiting payment hold no stock.
func (s Status) StockCommitted() bool {
	return s == StatusConfirmed || s == StatusShipped || s == StatusDelivered
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

// ParseStatus maps the wire representation back to a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPendingPayment, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}
