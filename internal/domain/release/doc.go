// Package release describes Bedrock dedicated server releases: the version
// being installed, the platform archive flavour and where to download it.
package release
