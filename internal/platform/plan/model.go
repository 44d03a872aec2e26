package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/pkg/money"
)

// RenewalPeriod is how far a single approved renewal extends a plan,
// counted from the plan's current expiry.
const RenewalPeriod = 30 * 24 * time.Hour

// Plan is a subscription-style service plan with a fixed renewal cost
type Plan struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"userId"`
	Name        string      `json:"name"`
	RenewalCost money.Paise `json:"renewalCost"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Window is the plan extension an approved renewal is expected to produce
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RenewalWindow is the [current expiry, current expiry + 30d] interval the
// next approved renewal will cover. Informational for admin screens; the
// authoritative extension happens at approval time.
func (p *Plan) RenewalWindow() Window {
	return Window{Start: p.ExpiresAt, End: p.ExpiresAt.Add(RenewalPeriod)}
}
