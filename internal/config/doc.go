// Package config loads application settings from environment variables
// (prefixed TASKFLOW_) and an optional config.yaml using viper, and
// validates them with struct tags plus a few cross-field rules.
package config
