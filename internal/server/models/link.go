package models

import "time"

// ShareToken is an anonymous bearer credential for exactly one storage key.
type ShareToken struct {
	FileKey   string
	Token     string
	CreatedAt time.Time
}
