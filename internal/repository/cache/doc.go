// Package cache implements the on-disk download cache of the updater.
//
// A Manager owns one cache root per server installation. The root holds the
// staging tree an archive is extracted into, a .VERSION marker written only
// after extraction succeeded, and an advisory lock file that keeps two
// installs from sharing the same cache.
package cache
