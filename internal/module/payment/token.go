package payment

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DisplayToken is a client-facing payment reference. It exists for
// traceability only; the backend-assigned transaction id is the source of
// truth and the two must never be conflated.
type DisplayToken string

const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewDisplayToken generates a reference combining a timestamp with a random
// suffix. Collision-resistant enough for display, not cryptographically
// secure.
func NewDisplayToken(now time.Time) DisplayToken {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return DisplayToken(fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix))
}
