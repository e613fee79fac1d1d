package enum

// Roles carried in JWT claims and checked by the router. The database
// layer has its own typed column enums; these are the wire-level
// strings shared by auth, middleware and handlers.

const (
	RoleCustomer = "customer"
	RoleChef     = "chef"
	RoleCourier  = "courier"
	RoleManager  = "manager"
)

// Reputation rule labels recorded on reputation_events rows. One label
// per (subject, source) pair is ever stored, which is what makes the
// rules idempotent across the inline path and the sweep.

const (
	RuleWarning          = "warning"
	RuleComplaintAgainst = "complaint_against"
	RuleCompliment       = "compliment"
	RuleRatingSample     = "rating_sample"
	RuleNone             = "none"
)
