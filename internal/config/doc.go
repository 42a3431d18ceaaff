// Package config defines the sentinel settings and provides helpers to load,
// validate and save them in YAML format.
//
// Validate fills defaults for every omitted field, so a file may list only the
// values it wants to change.
package config
