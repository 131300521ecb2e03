package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/compound/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "COMPOUND"
)

// Config keys, matching the yaml tags of types.Config.
const (
	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeySync       = "sync_strategy"
	cfgKeyPredicate  = "relationship_predicate"
	cfgKeyRestrict   = "restrict_children_to_compound"
	cfgKeyThumbnails = "generate_thumbnail_on_child_change"
)

// defaultConfig is written to config.yaml on first run.
func defaultConfig() types.Config {
	return types.Config{
		Backend:                        types.BackendSQLite,
		SyncStrategy:                   types.SyncImmediate,
		RelationshipPredicate:          types.DefaultMembershipPredicate,
		RestrictChildrenToCompound:     true,
		GenerateThumbnailOnChildChange: true,
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file first if needed. Every key except data_dir can also be set
// through a COMPOUND_ environment variable; data_dir keeps its own
// precedence in internal/paths.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	def := defaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeySync, def.SyncStrategy)
	v.SetDefault(cfgKeyPredicate, def.RelationshipPredicate)
	v.SetDefault(cfgKeyRestrict, def.RestrictChildrenToCompound)
	v.SetDefault(cfgKeyThumbnails, def.GenerateThumbnailOnChildChange)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeySync, cfgKeyPredicate, cfgKeyRestrict, cfgKeyThumbnails} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// engineConfig builds the types.Config for this invocation from settings
// and flags.
func engineConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:                        settings.GetString(cfgKeyBackend),
		DataDir:                        dataDir,
		SyncStrategy:                   settings.GetString(cfgKeySync),
		RelationshipPredicate:          settings.GetString(cfgKeyPredicate),
		RestrictChildrenToCompound:     settings.GetBool(cfgKeyRestrict),
		GenerateThumbnailOnChildChange: settings.GetBool(cfgKeyThumbnails),
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("config: %w", err))
	}
	return cfg, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes defaultConfig as config.yaml unless the
// file already exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	body, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	header := []byte("# compound configuration\n# data_dir is optional; --data-dir and COMPOUND_DATA_DIR also set it.\n")
	return os.WriteFile(path, append(header, body...), 0o644)
}
