package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Loader reads a YAML configuration file into a Config, expanding
// environment references and applying defaults before validation. This
// mirrors the teacher's koanf_loader.go pipeline (file provider -> raw
// bytes with env expansion -> YAML parser -> struct unmarshal) simplified
// to a single file source: Shesha has no remote config backend (no
// consul/etcd provider, unlike the teacher) since a single-process CLI/
// library has nowhere to run one.
type Loader struct {
	k *koanf.Koanf
}

// NewLoader returns an empty Loader.
func NewLoader() *Loader {
	return &Loader{k: koanf.New(".")}
}

// Load reads path, expands ${VAR}/${VAR:-default} references against the
// process environment (after loading a .env file from the working
// directory, if one exists), and
// decodes the result into a Config with defaults applied.
func (l *Loader) Load(path string) (*Config, error) {
	loadDotenv(".env")

	raw, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := expandEnv(string(raw))

	if err := l.k.Load(rawbytes.Provider([]byte(expanded)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	var cfg Config
	if err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
