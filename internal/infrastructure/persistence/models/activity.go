package models

import (
	"encoding/json"
	"time"

	"github.com/assetflow/backend/internal/domain/activity"
	"github.com/google/uuid"
)

// ActivityLogModel is the relational sink for activity entries
type ActivityLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Action     string    `gorm:"type:varchar(50);not null;index"`
	EntityType string    `gorm:"type:varchar(50);not null;index:idx_activity_entity"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_entity"`
	Summary    string    `gorm:"type:text"`
	Details    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the persistence model to a domain Entry
func (m *ActivityLogModel) ToDomain() *activity.Entry {
	e := &activity.Entry{
		ID:         m.ID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Summary:    m.Summary,
		CreatedAt:  m.CreatedAt,
	}
	if m.Details != "" {
		_ = json.Unmarshal([]byte(m.Details), &e.Details)
	}
	return e
}

// ActivityLogModelFromDomain creates a new model from a domain Entry
func ActivityLogModelFromDomain(e *activity.Entry) *ActivityLogModel {
	m := &ActivityLogModel{
		ID:         e.ID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Summary:    e.Summary,
		CreatedAt:  e.CreatedAt,
	}
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			m.Details = string(b)
		}
	}
	return m
}
