package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "MOVIEPICKER_CONFIG"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOVIEPICKER_"

// DefaultConfigPaths lists the paths searched, in order, when no explicit
// path is given. "~" is expanded.
var DefaultConfigPaths = []string{
	"moviepicker.yaml",
	"moviepicker.yml",
	"~/.moviepicker/config.yaml",
}

// Load layers defaults, the config file and the environment.
//
// An explicit path (from --config or MOVIEPICKER_CONFIG) must exist; the
// default search paths are optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	explicit := path != ""
	if !explicit {
		if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
			path, explicit = envPath, true
		} else {
			path = findConfigFile()
		}
	}
	if path != "" {
		path = ExpandPath(path)
		if err := checkReadable(path, explicit); err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, &InvalidConfigError{
				Path:    path,
				Message: fmt.Sprintf("YAML parse error: %v", err),
				Hint:    "Restore from .bak file if available, or run 'moviepicker config init --force'",
			}
		}
	}

	// Layer 3: environment. PORT sits below MOVIEPICKER_SERVE_ADDR.
	if port := os.Getenv("PORT"); port != "" {
		if err := k.Set("serve.addr", ":"+port); err != nil {
			return nil, fmt.Errorf("failed to apply PORT: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.source = path
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, &InvalidConfigError{
			Path:    sourceName(path),
			Message: err.Error(),
			Hint:    "Fix the listed keys in the config file or MOVIEPICKER_* environment",
		}
	}

	return cfg, nil
}

// findConfigFile returns the first existing default path, or "".
func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		p = ExpandPath(p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// checkReadable maps missing and unreadable files to hint-carrying errors.
func checkReadable(path string, mustExist bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !mustExist {
				return nil
			}
			return &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'moviepicker config init' to create configuration",
			}
		}
		return fmt.Errorf("failed to access config: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return &PermissionError{
				Path:    path,
				Op:      "read",
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return f.Close()
}

// envTransformFunc maps MOVIEPICKER_SERVE_ADDR to serve.addr. Only the
// first underscore separates section from key, so MOVIEPICKER_DATA_MAX_RATINGS
// becomes data.max_ratings.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// processSliceFields splits comma-separated env values for list keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, key := range []string{"serve.cors_origins"} {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(key, values); err != nil {
			return err
		}
	}
	return nil
}

func sourceName(path string) string {
	if path == "" {
		return "(defaults and environment)"
	}
	return path
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
