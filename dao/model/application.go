package model

import "gorm.io/gorm"

// Application is a challenger's application to a project within a round.
// ProjectID and Part are copied from the form and the applicant at submit
// time so allocation queries never walk the object graph.
type Application struct {
	gorm.Model
	FormID       uint              `gorm:"not null;index;comment:application form"`
	ProjectID    uint              `gorm:"not null;index:idx_project_part_round;comment:project"`
	Part         Part              `gorm:"type:varchar(32);not null;index:idx_project_part_round;comment:applicant part"`
	RoundID      uint              `gorm:"not null;index:idx_project_part_round;uniqueIndex:uniq_challenger_round;comment:matching round"`
	ChallengerID uint              `gorm:"not null;uniqueIndex:uniq_challenger_round;comment:applicant"`
	Status       ApplicationStatus `gorm:"type:varchar(16);not null;default:PENDING;index;comment:application status"`
}
