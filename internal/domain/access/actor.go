// Package access describes who is acting on a request and what they may touch.
package access

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Role string

const (
	RoleTrainer     Role = "trainer"
	RoleBranchAdmin Role = "branch_admin"
	RoleMainAdmin   Role = "main_admin"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleTrainer, RoleBranchAdmin, RoleMainAdmin:
		return r, true
	}
	return "", false
}

type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// System is used by sweeps that run without a request actor.
var System = Actor{Role: RoleMainAdmin}

// Privileged is true for branch and main admins.
func (a Actor) Privileged() bool {
	return a.Role == RoleBranchAdmin || a.Role == RoleMainAdmin
}

// Highest is true only for the main admin.
func (a Actor) Highest() bool {
	return a.Role == RoleMainAdmin
}

// CanActFor reports whether the actor may act on records owned by trainerID.
func (a Actor) CanActFor(trainerID uuid.UUID) bool {
	return a.Privileged() || (a.UserID != uuid.Nil && a.UserID == trainerID)
}

// IDPtr returns the actor id for audit columns, nil for the system actor.
func (a Actor) IDPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// FromGin reads the actor placed on the context by the auth middleware.
func FromGin(c *gin.Context) (Actor, bool) {
	raw, ok := c.Get(ContextUserID)
	if !ok {
		return Actor{}, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return Actor{}, false
	}
	role, ok := ParseRole(c.GetString(ContextRole))
	if !ok {
		return Actor{}, false
	}
	return Actor{UserID: id, Role: role}, true
}
