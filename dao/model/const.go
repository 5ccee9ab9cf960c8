// Constants mapped to database columns.
// Gin rejects zero values for fields tagged `required`, so the first
// constant of every enum starts at iota + 1.
package model

// Role of a challenger on the platform.
type Role uint8

const (
	RoleChallenger Role = iota + 1
	RoleAdmin
)

// Part is the role category applicants and quotas are segmented by.
type Part string

const (
	PartPlan       Part = "PLAN"
	PartDesign     Part = "DESIGN"
	PartWeb        Part = "WEB"
	PartAndroid    Part = "ANDROID"
	PartIOS        Part = "IOS"
	PartNodejs     Part = "NODEJS"
	PartSpringboot Part = "SPRINGBOOT"
)

func (p Part) String() string {
	return string(p)
}

// ApplicationStatus of a project application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "PENDING"
	ApplicationConfirmed ApplicationStatus = "CONFIRMED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
)

func (s ApplicationStatus) String() string {
	return string(s)
}
