// Package config defines the updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// Every field can be overridden through a BDS_UPDATER_* environment variable,
// which takes precedence over the file.
package config
