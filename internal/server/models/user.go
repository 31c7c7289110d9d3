package models

import "time"

// User is a directory record. ExternalID is the subject issued by the login
// provider; ID is the internal key referenced by grants.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	UserName   string    `json:"username"`
	CreatedAt  time.Time `json:"createdAt"`
}
