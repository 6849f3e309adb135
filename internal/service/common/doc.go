// Package common holds helpers shared by several services.
//
// It provides the Runner abstraction for executing external commands with
// streamed combined output and utilities to detect the current system actor
// (hostname/username) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
