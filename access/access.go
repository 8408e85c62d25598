// Package access resolves users into actors and decides which content
// operations an actor may perform.
package access

import (
	"strings"

	"folio/common"
	"folio/models"
)

type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

type Capability string

const (
	View          Capability = "VIEW"
	Comment       Capability = "COMMENT"
	ManageContent Capability = "MANAGE_CONTENT"
	ManageUsers   Capability = "MANAGE_USERS"
)

var grants = map[Role][]Capability{
	RoleViewer: {View, Comment},
	RoleEditor: {View, Comment, ManageContent},
	RoleAdmin:  {View, Comment, ManageContent, ManageUsers},
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := grants[r]; !ok {
		return "", common.Validation("unknown role %q", s)
	}
	return r, nil
}

// RoleFromLegacy maps the old {isAdmin, role?} pair onto a Role. A
// non-empty role is authoritative, with the legacy "user" value meaning
// viewer. Without one the admin flag decides.
func RoleFromLegacy(isAdmin bool, role *string) Role {
	if role != nil && strings.TrimSpace(*role) != "" {
		if r, err := ParseRole(*role); err == nil {
			return r
		}
		if strings.EqualFold(strings.TrimSpace(*role), "user") {
			return RoleViewer
		}
	}
	if isAdmin {
		return RoleAdmin
	}
	return RoleViewer
}

// Actor is the resolved identity performing an operation. The zero value
// is an anonymous visitor.
type Actor struct {
	UserID uint
	Role   Role
}

func Anonymous() Actor {
	return Actor{}
}

// Resolve builds the actor for a stored user. A stored role outside the
// enum resolves to viewer.
func Resolve(u *models.User) Actor {
	r, err := ParseRole(u.Role)
	if err != nil {
		r = RoleViewer
	}
	return Actor{UserID: u.ID, Role: r}
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == 0
}

func (a Actor) Can(c Capability) bool {
	role := a.Role
	if a.IsAnonymous() || role == "" {
		role = RoleViewer
	}
	for _, g := range grants[role] {
		if g == c {
			return true
		}
	}
	return false
}

func (a Actor) Require(c Capability) error {
	if !a.Can(c) {
		return common.Forbidden("%s capability required", c)
	}
	return nil
}

// CheckRoleChange rejects changes that would leave the acting admin
// unable to manage users.
func CheckRoleChange(actor Actor, targetID uint, newRole Role) error {
	if err := actor.Require(ManageUsers); err != nil {
		return err
	}
	if actor.UserID == targetID && !(Actor{UserID: targetID, Role: newRole}).Can(ManageUsers) {
		return common.Forbidden("you cannot remove your own admin role")
	}
	return nil
}

func CheckUserDelete(actor Actor, targetID uint) error {
	if err := actor.Require(ManageUsers); err != nil {
		return err
	}
	if actor.UserID == targetID {
		return common.Forbidden("you cannot delete your own account")
	}
	return nil
}
