// Package config defines build host settings used by binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the builder directory, the build command, the site
// list and the update folder URL.
package config
