package constants

import (
	"fmt"
	"strings"
)

// Scope names the configuration file `neurofig config set` writes to.
type Scope string

const (
	// ScopeGlobal is the user file ~/.neurofig/config.yaml.
	ScopeGlobal Scope = "global"

	// ScopeLocal is the project file <root>/.neurofig/config.yaml. It layers
	// over the global file.
	ScopeLocal Scope = "local"
)

// Scopes lists the scopes in load order.
var Scopes = []Scope{ScopeGlobal, ScopeLocal}

// ParseScope accepts a scope name in any case. "project" is an alias for local
// and "user" for global.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "user":
		return ScopeGlobal, nil
	case "local", "project":
		return ScopeLocal, nil
	}
	return "", fmt.Errorf("invalid scope: %s (valid: global, local)", s)
}

// Valid reports whether s is one of Scopes.
func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeLocal
}

func (s Scope) String() string {
	return string(s)
}
