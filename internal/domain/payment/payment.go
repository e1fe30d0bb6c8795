package payment

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultCurrency = "usd"
	MethodCard      = "card"

	// RecordedAtField is stamped on every ledger entry by the server.
	RecordedAtField = "recordedAt"
)

var ErrInvalidAmount = errors.New("price must be greater than zero")

// Payment is a ledger entry. The payload is whatever the client submitted,
// entries are never updated or deleted.
type Payment map[string]any

func (p Payment) Email() string {
	v, _ := p["email"].(string)
	return strings.TrimSpace(v)
}

type IntentRequest struct {
	Price    float64 `json:"price" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"omitempty,len=3"`
}

// ToMinorUnits converts a price in major units (dollars) to the integer
// minor units (cents) a payment processor expects.
func ToMinorUnits(price float64) (int64, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(price * 100)), nil
}

func NormalizeCurrency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// Stamp returns a copy of p with the server-side recorded time set. A
// client-supplied _id is dropped so the store always assigns the identifier,
// and an entry without an email is attributed to payer so it shows up in
// the payer's ledger.
func Stamp(p Payment, payer string, now time.Time) Payment {
	out := make(Payment, len(p)+2)
	for k, v := range p {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	if out.Email() == "" && payer != "" {
		out["email"] = payer
	}
	out[RecordedAtField] = now.UTC()
	return out
}

// RecordedAt reads the server stamp back from a stored entry, whichever way
// the store decoded it.
func RecordedAt(p Payment) time.Time {
	switch v := p[RecordedAtField].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time().UTC()
	default:
		return time.Time{}
	}
}

func ID(p Payment) (primitive.ObjectID, bool) {
	id, ok := p["_id"].(primitive.ObjectID)
	return id, ok
}

type ListFilter struct {
	Email string
	Limit int
	After *utils.PageCursor
}
