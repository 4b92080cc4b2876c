package config

import "os"

// DefaultAPIURL is used when SQLGATE_API_URL is not set.
const DefaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the sqlgate API.
// It can be overridden with the SQLGATE_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("SQLGATE_API_URL"); v != "" {
		return v
	}
	return DefaultAPIURL
}
