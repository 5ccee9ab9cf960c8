package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Actor is not allowed to perform the transition
	NotAllowed ErrorCode = 40301
	// Transition attempted outside the round's decision window
	RoundNotEnded  ErrorCode = 40302
	DeadlinePassed ErrorCode = 40303

	// Not found
	ChapterNotFound     ErrorCode = 40401
	ChallengerNotFound  ErrorCode = 40402
	ProjectNotFound     ErrorCode = 40403
	QuotaNotFound       ErrorCode = 40404
	FormNotFound        ErrorCode = 40405
	RoundNotFound       ErrorCode = 40406
	ApplicationNotFound ErrorCode = 40407

	// Invariant violations
	AlreadyApplied  ErrorCode = 40901
	SameStatus      ErrorCode = 40902
	AlreadyMember   ErrorCode = 40903
	InvalidSchedule ErrorCode = 40904
	PeriodOverlap   ErrorCode = 40905

	// Rejected while still owing confirmations in the group; the message
	// carries how many more must be selected so the UI can explain.
	NeedMinSelection ErrorCode = 42201
	// No seat left for the (project, part)
	QuotaExceeded ErrorCode = 42202

	// A confirmed application had no membership row; data inconsistency
	// that needs operator attention, not caller retry.
	MembershipMissing ErrorCode = 50001

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
