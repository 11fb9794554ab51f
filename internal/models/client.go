package models

import (
	"strings"
	"time"
)

// APIClient is an authenticated caller of the builder API (the hosting SPA
// backend, admin tooling, etc.)
type APIClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	APIKey      string            `json:"-"` // never serialized
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks a permission string such as "drafts:write".
// "drafts:*" matches every drafts permission, "*" matches everything.
func (c *APIClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		if perm == required || perm == "*" {
			return true
		}
		if strings.HasSuffix(perm, ":*") && strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
			return true
		}
	}

	return false
}

// MaskedAPIKey returns a loggable prefix of the key
func (c *APIClient) MaskedAPIKey() string {
	if len(c.APIKey) < 8 {
		return "***"
	}
	return c.APIKey[:8] + "..."
}
