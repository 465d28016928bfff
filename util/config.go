package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// TlsConfig is the optional [tls] table. Cert and Key are required
// together; Ca is optional.
type TlsConfig struct {
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
	Ca   string `mapstructure:"ca"`
}

// Config is the client's configuration file shape: a transport-specific
// [server] table, loaded as a free-form map, and an optional [tls] table.
// Of the [server] table only the addr key is used (cmd's connect hands it
// to tagged.Dial); other keys are loaded but not passed to the transport.
type Config struct {
	Server map[string]interface{} `mapstructure:"server"`
	Tls    *TlsConfig              `mapstructure:"tls"`
}

// TlsMaterialError reports that a configured TLS field was missing or
// could not be resolved to an existing file. Load's caller distinguishes
// this from other config failures (e.g. via errors.As) to report it as its
// own error kind rather than a generic config-parse failure.
type TlsMaterialError struct {
	Field string
	Path  string
}

func (e *TlsMaterialError) Error() string {
	return fmt.Sprintf("tls %s not resolvable: %s", e.Field, e.Path)
}

// tlsCommentBlock documents the optional [tls] table without committing to
// placeholder values the marshaled [server] table doesn't carry.
const tlsCommentBlock = `
# [tls]
# cert = "client.crt"
# key = "client.key"
# ca = "ca.crt"
`

// WriteDefaultConfig writes the bundled default configuration to path,
// failing if it already exists.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	body, err := toml.Marshal(struct {
		Server map[string]interface{} `toml:"server"`
	}{
		Server: map[string]interface{}{"addr": "127.0.0.1:9000"},
	})
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	body = append(body, []byte(tlsCommentBlock)...)
	return os.WriteFile(path, body, 0644)
}

// Load reads the TOML config from ./config, falling back to a file named
// config next to the running executable. Relative TLS paths are resolved
// the same way: first against CWD, then against the executable's
// directory.
func Load() (*Config, error) {
	candidates := configCandidates()

	var found string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			found = c
			break
		}
	}
	if found == "" {
		return nil, fmt.Errorf("config missing: tried %v", candidates)
	}

	v := viper.New()
	v.SetConfigFile(found)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", found, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", found, err)
	}

	if cfg.Tls != nil {
		if err := resolveTlsPaths(cfg.Tls); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func configCandidates() []string {
	candidates := []string{"config"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "config"))
	}
	return candidates
}

// resolveTlsPaths resolves cert/key/ca against CWD first, then the
// executable's directory. Cert and key are required; ca is optional, and
// its absence is not an error here — accept-any-cert mode is handled by
// the transport dialer, not config loading.
func resolveTlsPaths(tls *TlsConfig) error {
	if tls.Cert == "" || tls.Key == "" {
		return &TlsMaterialError{Field: "cert/key", Path: "(not configured)"}
	}

	resolved, err := resolveExisting(tls.Cert)
	if err != nil {
		return &TlsMaterialError{Field: "cert", Path: tls.Cert}
	}
	tls.Cert = resolved

	resolved, err = resolveExisting(tls.Key)
	if err != nil {
		return &TlsMaterialError{Field: "key", Path: tls.Key}
	}
	tls.Key = resolved

	if tls.Ca != "" {
		resolved, err = resolveExisting(tls.Ca)
		if err != nil {
			return &TlsMaterialError{Field: "ca", Path: tls.Ca}
		}
		tls.Ca = resolved
	}

	return nil
}

func resolveExisting(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s not found", path)
		}
		return path, nil
	}

	if _, err := os.Stat(path); err == nil {
		abs, _ := filepath.Abs(path)
		return abs, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not resolvable against cwd or executable directory", path)
}
