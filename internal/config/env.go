package config

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// envVarPatterns mirrors the teacher's three-pattern expansion (pkg/config/env.go):
// braced-with-default, braced, then bare $VAR, applied in that order. Each
// pass runs over the whole string, so a $VAR or ${VAR} reference that an
// earlier pass substituted in (from a default or an environment value) is
// expanded again by the later passes.
var envVarPatterns = struct {
	withDefault *regexp.Regexp
	braced      *regexp.Regexp
	simple      *regexp.Regexp
}{
	withDefault: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-([^}]*)\}`),
	braced:      regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	simple:      regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`),
}

// loadDotenv loads a .env file into the process environment if present.
// Values already set in the environment are not overridden, matching
// godotenv.Load's documented behavior and the teacher's convention of
// treating .env as a development convenience, not an override source.
func loadDotenv(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// expandEnv replaces ${VAR}, ${VAR:-default}, and bare $VAR references in
// raw with values from the process environment. A reference with no
// default and no matching environment variable expands to the empty
// string, matching shell parameter expansion semantics.
func expandEnv(raw string) string {
	raw = envVarPatterns.withDefault.ReplaceAllStringFunc(raw, func(match string) string {
		groups := envVarPatterns.withDefault.FindStringSubmatch(match)
		name, def := groups[1], groups[2]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return def
	})
	raw = envVarPatterns.braced.ReplaceAllStringFunc(raw, func(match string) string {
		groups := envVarPatterns.braced.FindStringSubmatch(match)
		return os.Getenv(groups[1])
	})
	raw = envVarPatterns.simple.ReplaceAllStringFunc(raw, func(match string) string {
		groups := envVarPatterns.simple.FindStringSubmatch(match)
		return os.Getenv(groups[1])
	})
	return raw
}
