package model

import "github.com/google/uuid"

// Roles carried by UserContext. They are used for attribution only.
const (
	RoleSystem    = "system"
	RoleAdmin     = "admin"
	RoleStaff     = "staff"
	RoleCustomer  = "customer"
	RoleAnonymous = "anonymous"
)

// UserContext identifies who performed an action.
type UserContext struct {
	UserID uuid.UUID
	Role   string
}

// SystemUser is the actor used for work the service triggers on its own.
var SystemUser = UserContext{Role: RoleSystem}

// UserIDPtr returns the user id, or nil for anonymous and system actors.
func (u *UserContext) UserIDPtr() *uuid.UUID {
	if u == nil || u.UserID == uuid.Nil {
		return nil
	}
	id := u.UserID
	return &id
}

// RoleOrSystem returns the role, defaulting to system when unset.
func (u *UserContext) RoleOrSystem() string {
	if u == nil || u.Role == "" {
		return RoleSystem
	}
	return u.Role
}
