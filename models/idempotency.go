package models

import "time"

// IdempotencyRecord remembers the outcome of a mutating request sent with an
// Idempotency-Key header. Done is false while the first request is in flight.
type IdempotencyRecord struct {
	Key         string    `bson:"key" json:"key"`
	Method      string    `bson:"method" json:"method"`
	Path        string    `bson:"path" json:"path"`
	RequestHash string    `bson:"requestHash" json:"requestHash"`
	Done        bool      `bson:"done" json:"done"`
	Status      int       `bson:"status,omitempty" json:"status,omitempty"`
	Body        []byte    `bson:"body,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt   time.Time `bson:"expiresAt" json:"expiresAt"`
}
