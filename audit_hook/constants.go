package audithook

// Action constants for audit events.
const (
	// Membership actions
	ActionMemberJoined = "member.joined"
	ActionMemberBanned = "member.banned"

	// Points actions
	ActionPointsEarned      = "points.earned"
	ActionPointsAssigned    = "points.assigned"
	ActionPointsTransferred = "points.transferred"

	// Reward actions
	ActionRewardRedeemed = "reward.redeemed"

	// Inbound actions
	ActionFundsReceived  = "funds.received"
	ActionFallbackCalled = "fallback.called"

	// Rejections
	ActionOperationRejected = "operation.rejected"
)

// Resource constants for audit events.
const (
	ResourceMember    = "member"
	ResourcePoints    = "points"
	ResourceReward    = "reward"
	ResourceFunds     = "funds"
	ResourceOperation = "operation"
)

// Category constants for audit events.
const (
	CategoryMembership = "membership"
	CategoryPoints     = "points"
	CategoryRewards    = "rewards"
	CategoryInbound    = "inbound"
	CategoryAccess     = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
