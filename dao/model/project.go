package model

import "gorm.io/gorm"

type Project struct {
	gorm.Model
	Name           string  `gorm:"uniqueIndex;type:varchar(64);not null;comment:project name"`
	Description    *string `gorm:"type:varchar(256);comment:project description"`
	ChapterID      uint    `gorm:"not null;index;comment:owning chapter"`
	ProductOwnerID uint    `gorm:"not null;comment:challenger who owns hiring decisions"`
}

// ProjectQuota is the maximum headcount (TO) for a (project, part) pair.
// Immutable during a round for allocation purposes; changed only by admins.
type ProjectQuota struct {
	gorm.Model
	ProjectID uint `gorm:"not null;uniqueIndex:uniq_project_part;comment:project"`
	Part      Part `gorm:"type:varchar(32);not null;uniqueIndex:uniq_project_part;comment:role category"`
	Headcount int  `gorm:"type:int;not null;comment:maximum headcount"`
}

// ProjectMember is a confirmed placement of a challenger into a project.
// Part is denormalized from the challenger so quota counts stay one query.
type ProjectMember struct {
	gorm.Model
	ProjectID    uint `gorm:"not null;uniqueIndex:uniq_project_challenger;comment:project"`
	ChallengerID uint `gorm:"not null;uniqueIndex:uniq_project_challenger;comment:challenger"`
	Part         Part `gorm:"type:varchar(32);not null;index;comment:role category"`
}

// ApplicationForm is the submission form applications are bound to.
type ApplicationForm struct {
	gorm.Model
	ProjectID uint   `gorm:"not null;index;comment:project the form belongs to"`
	Title     string `gorm:"type:varchar(128);not null;comment:form title"`
}
