// Package github provides access to the GitHub REST API for fetching commit
// diffs without a local checkout, plus remote URL parsing helpers.
package github
