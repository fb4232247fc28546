package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentRelationship is one parent-child edge in a universe's hierarchy.
// The parent must be organisational content; a child holds at most one edge.
// Siblings order by DisplayOrder ascending, ties by child creation time.
type ContentRelationship struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UniverseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"universe_id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	ChildID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"child_id"`
	Child        *ContentNode   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChildID;references:ID" json:"child,omitempty"`
	ParentID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"parent_id"`
	Parent       *ContentNode   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ParentID;references:ID" json:"parent,omitempty"`
	DisplayOrder int            `gorm:"column:display_order;not null;default:0" json:"display_order"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentRelationship) TableName() string { return "content_relationship" }
