package tracking

import (
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"time"

	"github.com/google/uuid"
)

// Progress through the route's stops as seen by one order's
// subscribers.
type StopProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Snapshot is the full current state pushed to subscribers. The hub
// is a last-value-wins broadcaster, not an event log: a subscriber
// that missed updates receives the current snapshot, never a backlog
// replay.
//
// Location and ETA are present only while the order is out for
// delivery; outside that window the customer is not shown a map.
type Snapshot struct {
	OrderID      uuid.UUID              `json:"order_id"`
	OrderStatus  domain.OrderStatus     `json:"order_status"`
	StopProgress StopProgress           `json:"stop_progress"`
	Location     *domain.LocationSample `json:"location,omitempty"`
	ETA          *services.ETARange     `json:"eta,omitempty"`
	GeneratedAt  time.Time              `json:"generated_at"`
}
