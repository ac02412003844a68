// Package common holds helpers shared by several services.
//
// It provides an HTTP download client with timeouts and retries, and detects
// the current system actor (hostname/username) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
