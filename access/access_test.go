package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/common"
	"folio/models"
)

func strPtr(s string) *string { return &s }

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Editor ")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, r)

	_, err = ParseRole("superuser")
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = ParseRole("user")
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		actor Actor
		cap   Capability
		want  bool
	}{
		{Anonymous(), View, true},
		{Anonymous(), Comment, true},
		{Anonymous(), ManageContent, false},
		{Actor{UserID: 1, Role: RoleViewer}, ManageContent, false},
		{Actor{UserID: 1, Role: RoleEditor}, ManageContent, true},
		{Actor{UserID: 1, Role: RoleEditor}, ManageUsers, false},
		{Actor{UserID: 1, Role: RoleAdmin}, ManageContent, true},
		{Actor{UserID: 1, Role: RoleAdmin}, ManageUsers, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.actor.Role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.Can(tt.cap))
		})
	}
}

func TestRequire(t *testing.T) {
	err := Actor{UserID: 3, Role: RoleViewer}.Require(ManageContent)
	assert.True(t, common.IsKind(err, common.KindAuthorization))

	assert.NoError(t, Actor{UserID: 3, Role: RoleEditor}.Require(ManageContent))
}

func TestResolve(t *testing.T) {
	actor := Resolve(&models.User{ID: 9, Role: "admin"})
	assert.Equal(t, uint(9), actor.UserID)
	assert.Equal(t, RoleAdmin, actor.Role)

	actor = Resolve(&models.User{ID: 10, Role: "bogus"})
	assert.Equal(t, RoleViewer, actor.Role)
	assert.False(t, actor.Can(ManageContent))
}

func TestRoleFromLegacy(t *testing.T) {
	tests := []struct {
		name    string
		isAdmin bool
		role    *string
		want    Role
	}{
		{"admin flag without role", true, nil, RoleAdmin},
		{"plain user without role", false, nil, RoleViewer},
		{"legacy user value", false, strPtr("user"), RoleViewer},
		{"editor", false, strPtr("editor"), RoleEditor},
		{"role is authoritative over flag", true, strPtr("user"), RoleViewer},
		{"editor with admin flag", true, strPtr("editor"), RoleEditor},
		{"admin role without flag", false, strPtr("admin"), RoleAdmin},
		{"empty role falls back to flag", true, strPtr(""), RoleAdmin},
		{"unrecognised role falls back to flag", false, strPtr("owner"), RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleFromLegacy(tt.isAdmin, tt.role))
		})
	}
}

func TestCheckRoleChange(t *testing.T) {
	admin := Actor{UserID: 1, Role: RoleAdmin}

	err := CheckRoleChange(admin, 1, RoleEditor)
	assert.True(t, common.IsKind(err, common.KindAuthorization))

	assert.NoError(t, CheckRoleChange(admin, 1, RoleAdmin))
	assert.NoError(t, CheckRoleChange(admin, 2, RoleViewer))

	err = CheckRoleChange(Actor{UserID: 2, Role: RoleEditor}, 3, RoleAdmin)
	assert.True(t, common.IsKind(err, common.KindAuthorization))
}

func TestCheckUserDelete(t *testing.T) {
	admin := Actor{UserID: 1, Role: RoleAdmin}

	assert.True(t, common.IsKind(CheckUserDelete(admin, 1), common.KindAuthorization))
	assert.NoError(t, CheckUserDelete(admin, 2))
}
