package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/v1/items/42":                   "/v1/items/:id",
		"/v1/teams/7/analytics":          "/v1/teams/:id/analytics",
		"/v1/teams/7/unknown":            "/v1/teams/7/unknown",
		"/v1/users/3/permissions":        "/v1/users/:id/permissions",
		"/v1/notifications/9/read":       "/v1/notifications/:id/read",
		"/v1/store/redeem":               "/v1/store/redeem",
		"/v1/elogios?limit=10":           "/v1/elogios",
		"/v1/surveys/12/results?week=1":  "/v1/surveys/:id/results",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
