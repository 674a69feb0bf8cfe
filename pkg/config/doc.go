// Package config loads application configuration from SEAM_* environment
// variables and validates it before the server starts.
package config
