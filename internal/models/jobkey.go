package models

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Job keys look like "myvideo@@@ab12cd34ef.mp4": the display name the uploader
// chose, a separator, and the storage-safe object name. The short id is the
// first 10 chars of the base64 form of a fresh uuid, so a key is unique per
// upload attempt. The format is shared with clients and must not change.

const (
	jobKeySeparator = "@@@"
	shortIDLength   = 10
)

var ErrMalformedJobKey = errors.New("malformed job key")

type JobKey struct {
	DisplayName string
	ObjectName  string
}

// ShortID returns the object name with the extension stripped.
func (k JobKey) ShortID() string {
	return strings.TrimSuffix(k.ObjectName, filepath.Ext(k.ObjectName))
}

// NewJobKey composes a job key for a display name and file extension.
// ext is expected with its leading dot, as returned by filepath.Ext.
func NewJobKey(displayName, ext string) string {
	id := uuid.New()
	shortID := base64.RawURLEncoding.EncodeToString(id[:])[:shortIDLength]
	return fmt.Sprintf("%s%s%s%s", displayName, jobKeySeparator, shortID, ext)
}

// ParseJobKey splits a job key into its display name and object name.
// A key with anything other than exactly one separator is malformed.
func ParseJobKey(key string) (JobKey, error) {
	parts := strings.Split(key, jobKeySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return JobKey{}, errors.Wrapf(ErrMalformedJobKey, "key %q", key)
	}
	return JobKey{
		DisplayName: parts[0],
		ObjectName:  parts[1],
	}, nil
}
