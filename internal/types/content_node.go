package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Viewable media types carry a direct progress value; organisational media
// types group other content and carry a derived aggregate instead.
const (
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
	MediaTypeText  = "text"

	MediaTypeCollection = "collection"
	MediaTypeCharacter  = "character"
	MediaTypeLocation   = "location"
	MediaTypeItem       = "item"
	MediaTypeEvent      = "event"
)

func IsViewableMediaType(mediaType string) bool {
	switch mediaType {
	case MediaTypeVideo, MediaTypeAudio, MediaTypeText:
		return true
	}
	return false
}

func IsOrganisationalMediaType(mediaType string) bool {
	switch mediaType {
	case MediaTypeCollection, MediaTypeCharacter, MediaTypeLocation, MediaTypeItem, MediaTypeEvent:
		return true
	}
	return false
}

// ContentNode is one catalogued unit inside a universe. Progress is only set
// on viewable nodes; AggregatedProgress is only set on organisational nodes
// and stays nil while the node has no viewable descendants. Both are pointers
// so "unset" and "0" remain distinct values.
type ContentNode struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UniverseID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"universe_id"`
	Universe           *Universe      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UniverseID;references:ID" json:"universe,omitempty"`
	OwnerID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name               string         `gorm:"not null" json:"name"`
	MediaType          string         `gorm:"column:media_type;not null" json:"media_type"`
	IsViewable         bool           `gorm:"column:is_viewable;not null;default:false" json:"is_viewable"`
	Progress           *int           `gorm:"column:progress" json:"progress,omitempty"`
	AggregatedProgress *int           `gorm:"column:aggregated_progress" json:"aggregated_progress,omitempty"`
	Metadata           datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentNode) TableName() string { return "content_node" }
