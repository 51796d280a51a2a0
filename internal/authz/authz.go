package authz

// Role is the closed set of user roles. Only two effective tiers exist
// today: sales_rep is restricted, everyone else is not.
type Role string

const (
	RoleSalesRep Role = "sales_rep"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Known reports whether r is one of the defined roles.
func Known(r Role) bool {
	switch r {
	case RoleSalesRep, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Unrestricted reports whether the role bypasses ownership checks entirely.
func (r Role) Unrestricted() bool {
	return r == RoleManager || r == RoleAdmin
}

// CanAccess decides whether an actor may read or mutate a record assigned
// to assignedTo. An unassigned record counts as not owned, so a sales_rep
// is denied.
func CanAccess(actorID string, actorRole Role, assignedTo string) bool {
	if actorRole.Unrestricted() {
		return true
	}
	return assignedTo != "" && assignedTo == actorID
}

// CanViewAuditLogs gates the global and per-resource audit views.
func CanViewAuditLogs(actorRole Role) bool {
	return actorRole.Unrestricted()
}

// CanViewUserAudit allows a user to read their own trail; managers and
// admins may read anyone's.
func CanViewUserAudit(actorID string, actorRole Role, targetID string) bool {
	return actorRole.Unrestricted() || actorID == targetID
}
