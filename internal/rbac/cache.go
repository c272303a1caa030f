package rbac

import "sync"

// RoleCache holds role bindings for logged-in users. It is process local and
// owned by whoever constructs it; tests supply a fresh instance per case.
type RoleCache struct {
	mu    sync.RWMutex
	roles map[string]Role
}

// NewRoleCache constructs an empty RoleCache.
func NewRoleCache() *RoleCache {
	return &RoleCache{roles: make(map[string]Role)}
}

// Set binds a role to a user, typically at login.
func (c *RoleCache) Set(userID string, role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[userID] = role
}

// Get returns the cached role and whether one is bound.
func (c *RoleCache) Get(userID string) (Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	role, ok := c.roles[userID]
	return role, ok
}

// Clear removes a single binding, typically at logout.
func (c *RoleCache) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.roles, userID)
}

// Reset drops every binding.
func (c *RoleCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles = make(map[string]Role)
}
