// Package keys maps (owner, filename) pairs to blob-store keys and back.
//
// A storage key has the form "{ownerID}/{filename}". The segment before the
// first separator is the owning identity; every ownership check relies on it.
package keys

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
)

// Separator splits the owner segment from the filename.
const Separator = "/"

// UnknownType is reported for names without an extension.
const UnknownType = "unknown"

// ToKey builds the storage key of filename inside ownerID's namespace.
// Empty segments and segments containing the separator are rejected.
func ToKey(ownerID, filename string) (string, error) {
	if err := validateSegment("owner", ownerID); err != nil {
		return "", err
	}
	if err := validateSegment("filename", filename); err != nil {
		return "", err
	}
	return ownerID + Separator + filename, nil
}

// reserved names are path segments of the HTTP routes; a file with one of
// these names could not be addressed through them.
var reserved = map[string]struct{}{
	"shared-link":       {},
	"shared-permission": {},
}

// ValidateFilename checks a name for a new object: the ToKey rules plus the
// reserved route segments.
func ValidateFilename(filename string) error {
	if err := validateSegment("filename", filename); err != nil {
		return err
	}
	if _, ok := reserved[filename]; ok {
		return fmt.Errorf("%w: filename %q is reserved", common.ErrInvalidInput, filename)
	}
	return nil
}

// Prefix returns the listing prefix of ownerID's namespace.
func Prefix(ownerID string) string {
	return ownerID + Separator
}

// Validate reports whether key has a non-empty owner and filename part.
func Validate(key string) error {
	owner, name, ok := strings.Cut(key, Separator)
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("%w: malformed key %q", common.ErrInvalidInput, key)
	}
	return nil
}

// OwnerOf returns the segment before the first separator.
func OwnerOf(key string) string {
	owner, _, _ := strings.Cut(key, Separator)
	return owner
}

// FilenameOf returns everything after the first separator.
func FilenameOf(key string) string {
	_, name, _ := strings.Cut(key, Separator)
	return name
}

// DisplayName returns the segment after the last separator.
func DisplayName(key string) string {
	if i := strings.LastIndex(key, Separator); i >= 0 {
		return key[i+1:]
	}
	return key
}

// TypeOf returns the extension of name without the dot, or UnknownType.
func TypeOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return UnknownType
	}
	return name[i+1:]
}

// IsFolderPlaceholder reports keys that only mark a "directory".
func IsFolderPlaceholder(key string) bool {
	return strings.HasSuffix(key, Separator)
}

func validateSegment(what, s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty %s", common.ErrInvalidInput, what)
	}
	if strings.Contains(s, Separator) {
		return fmt.Errorf("%w: %s %q contains %q", common.ErrInvalidInput, what, s, Separator)
	}
	return nil
}
