package moderation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRolesConfig = `{
	"roles": {
		"admin": {
			"description": "Full moderation control",
			"permissions": ["restore_content", "view_queue", "view_audit_log"]
		},
		"moderator": {
			"description": "Queue triage only",
			"permissions": ["view_queue"]
		}
	},
	"users": [
		{"user_id": "admin-1", "role": "admin", "note": "Test admin"},
		{"user_id": "mod-1", "role": "moderator"}
	]
}`

func writeRolesConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moderators.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRoles_NoConfig(t *testing.T) {
	// Empty path means disabled mode: every check fails closed.
	roles, err := NewRoles("")
	require.NoError(t, err)
	assert.False(t, roles.IsEnabled())
	assert.False(t, roles.IsAdmin("admin-1"))
	assert.False(t, roles.HasPermission("admin-1", PermissionRestoreContent))
}

func TestNewRoles_MissingFile(t *testing.T) {
	roles, err := NewRoles("/nonexistent/path/moderators.json")
	require.NoError(t, err)
	assert.False(t, roles.IsEnabled())
}

func TestNewRoles_InvalidJSON(t *testing.T) {
	path := writeRolesConfig(t, "not valid json")
	_, err := NewRoles(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse roles config")
}

func TestNewRoles_UnknownRole(t *testing.T) {
	path := writeRolesConfig(t, `{
		"roles": {"admin": {"permissions": ["restore_content"]}},
		"users": [{"user_id": "u1", "role": "nonexistent"}]
	}`)
	_, err := NewRoles(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestRoles_Permissions(t *testing.T) {
	roles, err := NewRoles(writeRolesConfig(t, testRolesConfig))
	require.NoError(t, err)

	assert.True(t, roles.IsEnabled())
	assert.True(t, roles.IsAdmin("admin-1"))
	assert.False(t, roles.IsAdmin("mod-1"))

	assert.True(t, roles.HasPermission("admin-1", PermissionRestoreContent))
	assert.True(t, roles.HasPermission("admin-1", PermissionViewAuditLog))
	assert.True(t, roles.HasPermission("mod-1", PermissionViewQueue))
	assert.False(t, roles.HasPermission("mod-1", PermissionRestoreContent))
	assert.False(t, roles.HasPermission("stranger", PermissionViewQueue))
}

func TestRoles_Reload(t *testing.T) {
	path := writeRolesConfig(t, testRolesConfig)
	roles, err := NewRoles(path)
	require.NoError(t, err)
	require.True(t, roles.HasPermission("mod-1", PermissionViewQueue))

	// Drop the moderator and reload.
	require.NoError(t, os.WriteFile(path, []byte(`{
		"roles": {"admin": {"permissions": ["restore_content"]}},
		"users": [{"user_id": "admin-1", "role": "admin"}]
	}`), 0644))
	require.NoError(t, roles.Reload())
	assert.False(t, roles.HasPermission("mod-1", PermissionViewQueue))
	assert.True(t, roles.HasPermission("admin-1", PermissionRestoreContent))
}
