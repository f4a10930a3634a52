package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for document revisions.
// Version suffix enables future algorithm migration.
const (
	DomainConfiguration = "deckcfg/config/v" + DocumentVersion
	DomainBindings      = "deckcfg/binds/v" + DocumentVersion
)

// Revision computes the content address of a persisted document body.
// Format: SHA256(domain + 0x00 + body)
// The null byte separator prevents domain/body boundary ambiguity.
func Revision(domain string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
