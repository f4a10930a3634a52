package model

// Persisted document names.
const (
	DocConfiguration = "config"
	DocBindings      = "binds"
)
