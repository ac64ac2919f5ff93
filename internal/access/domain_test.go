package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"  Admin ", RoleAdmin, true},
		{"user", RoleUser, true},
		{"guest", RoleGuest, true},
		{"superuser", RoleGuest, false},
		{"", RoleGuest, false},
	}
	for _, tc := range tests {
		role, ok := ParseRole(tc.raw)
		assert.Equal(t, tc.want, role, "raw %q", tc.raw)
		assert.Equal(t, tc.ok, ok, "raw %q", tc.raw)
	}
}

func TestCapabilitiesNested(t *testing.T) {
	// Guest rights are a subset of user rights, user rights a subset of
	// admin rights. A regression here silently locks registered users out.
	all := []string{
		CapViewDashboard, CapViewAnalytics, CapViewHistory, CapExportData,
		CapManageAlerts, CapManageThresholds, CapManageUsers, CapDeleteData,
		CapViewJobs,
	}
	for _, name := range all {
		if HasCapability(RoleGuest, name) {
			assert.True(t, HasCapability(RoleUser, name), "user lost guest capability %s", name)
		}
		if HasCapability(RoleUser, name) {
			assert.True(t, HasCapability(RoleAdmin, name), "admin lost user capability %s", name)
		}
	}
}

func TestCapabilityGrants(t *testing.T) {
	assert.True(t, HasCapability(RoleGuest, CapViewDashboard))
	assert.True(t, HasCapability(RoleGuest, CapViewAnalytics))
	assert.False(t, HasCapability(RoleGuest, CapViewHistory))
	assert.False(t, HasCapability(RoleGuest, CapExportData))
	assert.False(t, HasCapability(RoleGuest, CapManageAlerts))

	assert.True(t, HasCapability(RoleUser, CapViewHistory))
	assert.True(t, HasCapability(RoleUser, CapExportData))
	assert.True(t, HasCapability(RoleUser, CapManageAlerts))
	assert.False(t, HasCapability(RoleUser, CapManageThresholds))
	assert.False(t, HasCapability(RoleUser, CapManageUsers))

	assert.True(t, HasCapability(RoleAdmin, CapManageThresholds))
	assert.True(t, HasCapability(RoleAdmin, CapManageUsers))
	assert.True(t, HasCapability(RoleAdmin, CapDeleteData))
	assert.True(t, HasCapability(RoleAdmin, CapViewJobs))
	assert.False(t, HasCapability(RoleUser, CapViewJobs))

	assert.False(t, HasCapability(Role("nobody"), CapViewDashboard))
	assert.False(t, HasCapability(RoleAdmin, "no_such_capability"))
}

func TestPageMatrixCoversEveryPage(t *testing.T) {
	// Every page in the matrix must be openable by the admin role, and the
	// login/signup pages must stay public rather than matrix entries.
	for _, page := range AllPages() {
		assert.True(t, PageAllowed(RoleAdmin, page), "admin cannot open %s", page)
	}
	assert.True(t, IsPublicPath(PageLogin))
	assert.True(t, IsPublicPath(PageSignup))
	assert.False(t, PageAllowed(RoleAdmin, PageLogin))
}

func TestPageAllowed(t *testing.T) {
	assert.True(t, PageAllowed(RoleGuest, PageDashboard))
	assert.True(t, PageAllowed(RoleGuest, PageAnalytics))
	assert.False(t, PageAllowed(RoleGuest, PageHistory))
	assert.False(t, PageAllowed(RoleGuest, PageSystemConfig))

	assert.True(t, PageAllowed(RoleUser, PageHistory))
	assert.True(t, PageAllowed(RoleUser, PageAlerts))
	assert.True(t, PageAllowed(RoleUser, PageProfile))
	assert.False(t, PageAllowed(RoleUser, PageSystemConfig))
	assert.False(t, PageAllowed(RoleUser, PageUserManagement))

	assert.True(t, PageAllowed(RoleAdmin, PageSystemConfig))
	assert.True(t, PageAllowed(RoleAdmin, PageUserManagement))
}

func TestIsPublicPath(t *testing.T) {
	assert.True(t, IsPublicPath("/"))
	assert.True(t, IsPublicPath("/healthz"))
	assert.True(t, IsPublicPath("/api/csrf"))
	assert.True(t, IsPublicPath("/api/auth/login"))
	assert.True(t, IsPublicPath("/api/sensors/readings"))
	assert.True(t, IsPublicPath("/static/css/app.css"))

	assert.False(t, IsPublicPath("/api/users/"))
	assert.False(t, IsPublicPath("/api/sensors/history"))
	assert.False(t, IsPublicPath(PageDashboard))
	assert.False(t, IsPublicPath("/ws"))
}
