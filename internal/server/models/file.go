// Package models defines server-side data models persisted in the metadata
// store or exchanged with the blob store.
package models

import "time"

// Object is blob-store listing metadata.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Blob is a fetched object body together with its metadata.
type Blob struct {
	Data         []byte
	ContentType  string
	Size         int64
	LastModified time.Time
}

// FileDescriptor is one row of a user's merged file listing. It is derived on
// every listing and never persisted.
type FileDescriptor struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	IsShared     bool      `json:"isShared"`
	SharedBy     string    `json:"sharedBy,omitempty"`
}

// SharedFile is a blob fetched through a share link. FileKey holds the
// display name of the object, not its storage key.
type SharedFile struct {
	*Blob
	FileKey string
}
