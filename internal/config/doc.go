// Package config loads and validates application settings from defaults, an
// optional config.yaml, an optional .env file and IMUNETRACK_* environment
// variables.
package config
