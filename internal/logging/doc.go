// Package logging provides file-based logging with rotation for launcherd.
// When the --debug flag is set, comprehensive logs are written to
// ~/.launcherd/logs/ for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
