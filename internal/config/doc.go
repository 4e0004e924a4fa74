// Package config loads application settings from an optional YAML file, a .env file
// and DRILL_ prefixed environment variables, in increasing order of precedence.
package config
