package moderation

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// Permission represents an administrative action on the moderation surface.
type Permission string

const (
	PermissionRestoreContent Permission = "restore_content"
	PermissionViewQueue      Permission = "view_queue"
	PermissionViewAuditLog   Permission = "view_audit_log"
)

// RoleName names a set of permissions in the roles config.
type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleModerator RoleName = "moderator"
)

// Role defines a set of permissions for administrative users.
type Role struct {
	Name        RoleName     `json:"-"` // set from map key during loading
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission checks if this role grants the given permission.
func (r *Role) HasPermission(perm Permission) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AdminUser maps a platform user ID to a role.
type AdminUser struct {
	UserID string   `json:"user_id"`
	Role   RoleName `json:"role"`
	Note   string   `json:"note,omitempty"`
}

// RolesConfig is the JSON shape of the roles file.
type RolesConfig struct {
	Roles map[RoleName]*Role `json:"roles"`
	Users []AdminUser        `json:"users"`
}

// Validate checks the config for users referencing unknown roles and fills
// in role names from the map keys.
func (c *RolesConfig) Validate() error {
	if c.Roles == nil {
		c.Roles = make(map[RoleName]*Role)
	}
	for _, user := range c.Users {
		if _, ok := c.Roles[user.Role]; !ok {
			return fmt.Errorf("roles config: user %s references unknown role: %s", user.UserID, user.Role)
		}
	}
	for name, role := range c.Roles {
		role.Name = name
	}
	return nil
}

// Roles provides permission lookups for the admin endpoints. With an empty
// config path the instance is disabled and every check fails closed.
type Roles struct {
	mu         sync.RWMutex
	config     *RolesConfig
	configPath string

	userRoles map[string]*Role
}

// NewRoles loads the roles config from path. An empty path or a missing file
// yields a disabled instance, not an error; a malformed file is an error.
func NewRoles(configPath string) (*Roles, error) {
	r := &Roles{
		configPath: configPath,
		userRoles:  make(map[string]*Role),
	}

	if configPath == "" {
		log.Info().Msg("moderation: no roles config path provided, admin surface disabled")
		return r, nil
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load roles config: %w", err)
	}
	return r, nil
}

func (r *Roles) load() error {
	data, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", r.configPath).Msg("moderation: roles config not found, admin surface disabled")
			return nil
		}
		return fmt.Errorf("failed to read roles config: %w", err)
	}

	var config RolesConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse roles config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = &config
	r.userRoles = make(map[string]*Role)
	for i := range config.Users {
		user := &config.Users[i]
		if role, ok := config.Roles[user.Role]; ok {
			r.userRoles[user.UserID] = role
		}
	}

	log.Info().
		Int("roles", len(config.Roles)).
		Int("users", len(config.Users)).
		Str("path", r.configPath).
		Msg("moderation: roles config loaded")

	return nil
}

// Reload re-reads the configuration from disk.
func (r *Roles) Reload() error {
	if r.configPath == "" {
		return nil
	}
	return r.load()
}

// IsEnabled returns true if at least one admin user is configured.
func (r *Roles) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config != nil && len(r.config.Users) > 0
}

// HasPermission returns true if the given user holds the permission.
func (r *Roles) HasPermission(userID string, perm Permission) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.userRoles[userID]
	if !ok {
		return false
	}
	return role.HasPermission(perm)
}

// IsAdmin returns true if the given user holds the admin role.
func (r *Roles) IsAdmin(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.userRoles[userID]
	return ok && role.Name == RoleAdmin
}
