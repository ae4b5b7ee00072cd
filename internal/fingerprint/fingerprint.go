// Package fingerprint computes content digests for launcher files.
//
// The digest is used purely to detect modification between reconciliation
// passes; it is not a security boundary, so MD5 is sufficient and matches
// the on-disk cache format.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"os"
)

// Compute returns the hex MD5 digest of the file content.
//
// ok is false when the file does not exist or cannot be read. Absence is
// the signal the reconciler uses to delete stale rows; it is never
// propagated as an error. Permission failures are folded into absence as
// well: a row we can no longer verify is treated the same as a removed
// file.
func Compute(path string) (digest string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read file for fingerprinting",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return "", false
	}

	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), true
}
