// Package access implements the role model, page-access matrix and the
// gate middleware that enforces them on every request.
package access

import "strings"

// Role is the closed set of caller roles. Roles are resolved in exactly one
// place (ResolveRole); handlers never compare raw strings.
type Role string

const (
	// RoleAdmin has every capability including configuration and user management.
	RoleAdmin Role = "admin"
	// RoleUser is a registered account with data-browsing and alert rights.
	RoleUser Role = "user"
	// RoleGuest is an anonymous, read-only visitor.
	RoleGuest Role = "guest"
)

// ParseRole maps a raw string to a Role. Unknown values are reported so
// callers can fall back to guest with a logged warning.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	case RoleGuest:
		return RoleGuest, true
	default:
		return RoleGuest, false
	}
}

// Capability names understood by the permission table. Unknown names resolve
// to false for every role.
const (
	CapViewDashboard    = "view_dashboard"
	CapViewAnalytics    = "view_analytics"
	CapViewHistory      = "view_history"
	CapExportData       = "export_data"
	CapManageAlerts     = "manage_alerts"
	CapManageThresholds = "manage_thresholds"
	CapManageUsers      = "manage_users"
	CapDeleteData       = "delete_data"
	CapViewJobs         = "view_jobs"
)

// capabilities maps each role to its granted capability set. Every role in
// the system has exactly one entry.
var capabilities = map[Role]map[string]bool{
	RoleGuest: {
		CapViewDashboard: true,
		CapViewAnalytics: true,
	},
	RoleUser: {
		CapViewDashboard: true,
		CapViewAnalytics: true,
		CapViewHistory:   true,
		CapExportData:    true,
		CapManageAlerts:  true,
	},
	RoleAdmin: {
		CapViewDashboard:    true,
		CapViewAnalytics:    true,
		CapViewHistory:      true,
		CapExportData:       true,
		CapManageAlerts:     true,
		CapManageThresholds: true,
		CapManageUsers:      true,
		CapDeleteData:       true,
		CapViewJobs:         true,
	},
}

// HasCapability reports whether the role grants the named capability.
// Unknown roles and unknown capability names both yield false.
func HasCapability(role Role, name string) bool {
	caps, ok := capabilities[role]
	if !ok {
		return false
	}
	return caps[name]
}

// Page paths served by the embedded frontend.
const (
	PageLogin          = "/html/login.html"
	PageSignup         = "/html/signup.html"
	PageDashboard      = "/html/dashboard.html"
	PageHistory        = "/html/history.html"
	PageAlerts         = "/html/alerts.html"
	PageAnalytics      = "/html/analytics.html"
	PageProfile        = "/html/profile.html"
	PageSystemConfig   = "/html/systemConfig.html"
	PageUserManagement = "/html/userManagement.html"
)

// publicPaths may be visited without any session.
var publicPaths = map[string]bool{
	"/":         true,
	PageLogin:   true,
	PageSignup:  true,
	"/healthz":  true,
	"/metrics":  true,
	"/api/auth": true,
	// The login page fetches its CSRF token before any session is vetted.
	"/api/csrf": true,
	// Device ingest authenticates with a hardware key, not a session; the
	// sensors handler enforces key-or-admin itself.
	"/api/sensors/readings": true,
}

// publicPrefixes cover asset trees that carry no protected content.
var publicPrefixes = []string{"/static/", "/api/auth/"}

// pageAccessMatrix maps each role to the page paths it may open. Pages absent
// from every entry are unreachable by design.
var pageAccessMatrix = map[Role]map[string]bool{
	RoleGuest: {
		PageDashboard: true,
		PageAnalytics: true,
	},
	RoleUser: {
		PageDashboard: true,
		PageAnalytics: true,
		PageHistory:   true,
		PageAlerts:    true,
		PageProfile:   true,
	},
	RoleAdmin: {
		PageDashboard:      true,
		PageAnalytics:      true,
		PageHistory:        true,
		PageAlerts:         true,
		PageProfile:        true,
		PageSystemConfig:   true,
		PageUserManagement: true,
	},
}

// IsPublicPath reports whether the path is reachable without a session.
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// PageAllowed reports whether the role's matrix entry permits the page.
func PageAllowed(role Role, path string) bool {
	pages, ok := pageAccessMatrix[role]
	if !ok {
		return false
	}
	return pages[path]
}

// HomePage returns the landing page used when redirecting a caller away from
// a page its role may not open.
func HomePage(role Role) string {
	// Every role lands on the dashboard; the matrix decides what else opens.
	_ = role
	return PageDashboard
}

// AllPages returns every page referenced by any matrix entry. Used by tests
// to assert that no protected page is orphaned.
func AllPages() []string {
	seen := map[string]bool{}
	var pages []string
	for _, entry := range pageAccessMatrix {
		for p := range entry {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	return pages
}
