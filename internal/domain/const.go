package domain

const (
	RequesterIdCtxKey      = "mkt-requesterId"
	RequesterRolesCtxKey   = "mkt-requesterRoles"
	RequesterIsAdminCtxKey = "mkt-requesterIsAdmin"
)

const (
	RegistrationOpen  = "open"
	RegistrationClose = "close"
)
