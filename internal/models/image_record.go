package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Backend tags which physical store holds an image's bytes.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"

	// legacySourceR2 is the tag older metadata files used for remote records.
	legacySourceR2 = "r2"
)

// ImageRecord describes one stored image and where its bytes live.
// Records are immutable once written to the metadata store.
type ImageRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	MimeType    string     `json:"mimeType,omitempty"`
	Size        *int64     `json:"size,omitempty"`
	CreatedTime *time.Time `json:"createdTime,omitempty"`
	Backend     Backend    `json:"backend"`
	RemoteKey   string     `json:"remoteKey,omitempty"`
	PublicURL   string     `json:"publicUrl,omitempty"`
	LocalPath   string     `json:"localPath,omitempty"`
}

// Validate checks that exactly one location field is set and that it
// matches the backend tag.
func (r ImageRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	switch r.Backend {
	case BackendRemote:
		if r.RemoteKey == "" || r.LocalPath != "" {
			return fmt.Errorf("remote record %s must carry remoteKey only", r.ID)
		}
	case BackendLocal:
		if r.LocalPath == "" || r.RemoteKey != "" {
			return fmt.Errorf("local record %s must carry localPath only", r.ID)
		}
	default:
		return fmt.Errorf("record %s has unknown backend %q", r.ID, r.Backend)
	}
	return nil
}

// UnmarshalJSON accepts both the current layout and the older one that
// used "source" ("r2" | "local") and "r2Key".
func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	type plain ImageRecord
	var aux struct {
		plain
		Source string `json:"source"`
		R2Key  string `json:"r2Key"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ImageRecord(aux.plain)

	if r.Backend == "" {
		switch aux.Source {
		case legacySourceR2:
			r.Backend = BackendRemote
		case string(BackendLocal):
			r.Backend = BackendLocal
		}
	}
	if r.RemoteKey == "" && aux.R2Key != "" {
		r.RemoteKey = aux.R2Key
	}
	return nil
}

// Redacted returns a copy without the filesystem path.
func (r ImageRecord) Redacted() ImageRecord {
	r.LocalPath = ""
	return r
}
