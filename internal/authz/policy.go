// Package authz holds the admin authorization policy. The allow-list
// is an explicit object injected into handlers so tests can use
// fixture lists instead of process environment.
package authz

import "strings"

// Policy decides which user ids hold administrator privileges.
type Policy struct {
	admins map[string]struct{}
}

// NewPolicy builds a Policy from a list of admin user ids. Blank
// entries are ignored.
func NewPolicy(adminIDs []string) *Policy {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}
	return &Policy{admins: admins}
}

// ParsePolicy builds a Policy from a comma-separated id list, the
// format used by the ADMIN_USER_IDS environment variable.
func ParsePolicy(raw string) *Policy {
	return NewPolicy(strings.Split(raw, ","))
}

// IsAdmin reports whether the given user id is on the allow-list.
func (p *Policy) IsAdmin(userID string) bool {
	_, ok := p.admins[userID]
	return ok
}
