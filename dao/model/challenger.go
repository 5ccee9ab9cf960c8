package model

import "gorm.io/gorm"

// Chapter is an organizational unit; matching rounds are scoped per chapter.
type Chapter struct {
	gorm.Model
	Name        string  `gorm:"uniqueIndex;type:varchar(64);not null;comment:chapter name"`
	Description *string `gorm:"type:varchar(256);comment:chapter description"`
}

// Challenger is an applicant registered in a chapter.
type Challenger struct {
	gorm.Model
	Name      string  `gorm:"type:varchar(64);not null;comment:real name"`
	Nickname  *string `gorm:"type:varchar(64);comment:nickname"`
	Email     string  `gorm:"type:varchar(128);comment:contact email"`
	Part      Part    `gorm:"type:varchar(32);not null;index;comment:role category"`
	Role      Role    `gorm:"type:smallint;not null;default:1;comment:platform role (challenger, admin)"`
	ChapterID uint    `gorm:"not null;index;comment:owning chapter"`
}
