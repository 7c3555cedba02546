// Package shared holds helpers used across the consolidator packages that do
// not belong to any single domain package.
//
// testutil contains log capture and report fixtures for tests. Nothing under
// shared may import a domain package.
package shared
