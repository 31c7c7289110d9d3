package models

import "time"

// PermissionGrant allows GranteeID to read FileKey, which OwnerID owns.
type PermissionGrant struct {
	ID        string
	FileKey   string
	OwnerID   string
	GranteeID string
	GrantedAt time.Time
}

// SharedGrant is a grant seen from the grantee's side, with the owner's
// directory record joined in.
type SharedGrant struct {
	FileKey   string
	Owner     User
	GrantedAt time.Time
}
