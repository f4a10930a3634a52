package model

// Version constants for persisted documents.
const (
	// DocumentVersion is the revision hashing domain version.
	DocumentVersion = "1"

	// ToolVersion is the deckcfg version.
	ToolVersion = "0.1.0"
)
