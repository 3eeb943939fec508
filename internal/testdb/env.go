package testdb

import (
	"net/url"
	"os"
	"strings"
)

// Environment variables consulted for a PostgreSQL test server, in order.
const (
	EnvTestDatabaseURL = "TASKFLOW_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// DatabaseURL returns the PostgreSQL URL tests should use, or "" to fall
// back to SQLite.
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// IsCI reports whether the tests run under a CI system.
func IsCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI"} {
		if v := os.Getenv(name); v != "" && v != "false" {
			return true
		}
	}
	return false
}

// MaskURL hides the password of a database URL for logging.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// withSearchPath returns raw with the PostgreSQL search_path runtime
// parameter set to schema. Both URL and keyword/value forms are accepted.
func withSearchPath(raw, schema string) (string, error) {
	if !strings.Contains(raw, "://") {
		return strings.TrimSpace(raw) + " search_path=" + schema, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
