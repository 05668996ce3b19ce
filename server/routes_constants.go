package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Account
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteLogout = "/logout"

	// Onboarding and progress
	RouteOnboarding = "/onboarding"
	RouteDashboard  = "/dashboard"

	// Universities
	RouteUniversities       = "/universities"
	RouteUniversitiesToggle = "/universities/shortlist"
	RouteUniversitiesLock   = "/universities/lock"
	RouteLock               = "/lock"
	RouteLockUniversity     = "/lock/{id}"

	// Tasks (edits are local to the browser session)
	RouteTasks      = "/tasks"
	RouteTaskToggle = "/tasks/{id}/toggle"
	RouteTaskDelete = "/tasks/{id}/delete"

	// Counsellor chat
	RouteChat = "/chat"

	// System
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
