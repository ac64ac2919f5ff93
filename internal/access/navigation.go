package access

// NavEntry is one rendered navigation link.
type NavEntry struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// navMenus holds the ordered navigation list per role. This list is the sole
// source of truth for which links the UI renders; the gate middleware remains
// the enforcement boundary.
var navMenus = map[Role][]NavEntry{
	RoleGuest: {
		{Label: "Dashboard", Path: PageDashboard},
		{Label: "Analytics", Path: PageAnalytics},
	},
	RoleUser: {
		{Label: "Dashboard", Path: PageDashboard},
		{Label: "History", Path: PageHistory},
		{Label: "Alerts", Path: PageAlerts},
		{Label: "Analytics", Path: PageAnalytics},
		{Label: "Profile", Path: PageProfile},
	},
	RoleAdmin: {
		{Label: "Dashboard", Path: PageDashboard},
		{Label: "History", Path: PageHistory},
		{Label: "Alerts", Path: PageAlerts},
		{Label: "Analytics", Path: PageAnalytics},
		{Label: "System Config", Path: PageSystemConfig},
		{Label: "User Management", Path: PageUserManagement},
		{Label: "Profile", Path: PageProfile},
	},
}

// NavigationFor returns the ordered menu for the role with the entry matching
// currentPath marked active. Unrecognized roles fall back to the guest menu.
func NavigationFor(role Role, currentPath string) []NavEntry {
	menu, ok := navMenus[role]
	if !ok {
		menu = navMenus[RoleGuest]
	}
	out := make([]NavEntry, len(menu))
	copy(out, menu)
	for i := range out {
		out[i].Active = out[i].Path == currentPath
	}
	return out
}
