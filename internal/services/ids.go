package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newLocalID returns a time-ordered id for a disk-stored image.
func newLocalID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "local-" + uuid.NewString()
	}
	return "local-" + id.String()
}

// newRemoteKey builds an object key from the upload time and the file name.
// The random segment keeps keys distinct when two uploads of the same name
// land in the same millisecond.
func newRemoteKey(now time.Time, name string) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], sanitizeName(name))
}
