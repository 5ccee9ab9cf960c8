package model

import (
	"time"

	"gorm.io/gorm"
)

// MatchingRound is a time-boxed matching window within a chapter.
// Invariant: StartAt < EndAt < DecisionDeadlineAt, and rounds of the same
// chapter never overlap in [StartAt, EndAt].
type MatchingRound struct {
	gorm.Model
	Name               string    `gorm:"type:varchar(64);not null;comment:round name"`
	Description        *string   `gorm:"type:varchar(256);comment:round description"`
	ChapterID          uint      `gorm:"not null;index;comment:owning chapter"`
	StartAt            time.Time `gorm:"not null;comment:application window opens"`
	EndAt              time.Time `gorm:"not null;comment:application window closes"`
	DecisionDeadlineAt time.Time `gorm:"not null;index;comment:manual decisions due"`
	// Set true exactly once by the auto-decision job, never reset.
	// Acts as the idempotency fence for batch processing.
	AutoDecisionExecuted bool `gorm:"not null;default:false;comment:auto decision already ran"`
}

func (MatchingRound) TableName() string {
	return "matching_rounds"
}
