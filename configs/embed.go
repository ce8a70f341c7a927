package configs

import "embed"

// BackendDefaults contains the shipped default backend YAML
// definitions, seeded into the operator's backends directory on first
// use.
//
//go:embed backends/*.yaml
var BackendDefaults embed.FS
