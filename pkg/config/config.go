package config

// Package config provides a reusable loader for Synnergy configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"thorsmoker/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for the settlement
// harness. It mirrors the structure of the YAML files under config/.
type Config struct {
	Network struct {
		ID         string `mapstructure:"id" json:"id"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"network" json:"network"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	// Harness carries the settlement engine's tunable constants and
	// the per-chain adapter endpoints the replay harness dials.
	Harness struct {
		RuneChain       string `mapstructure:"rune_chain" json:"rune_chain"`
		RuneFee         int64  `mapstructure:"rune_fee" json:"rune_fee"`
		SynthMultiplier int64  `mapstructure:"synth_multiplier" json:"synth_multiplier"`
		TargetSurplus   int64  `mapstructure:"target_surplus" json:"target_surplus"`
		EmissionCurve   int64  `mapstructure:"emission_curve" json:"emission_curve"`
		BlocksPerYear   int64  `mapstructure:"blocks_per_year" json:"blocks_per_year"`

		ThorchainURL string `mapstructure:"thorchain_url" json:"thorchain_url"`
		MidgardURL   string `mapstructure:"midgard_url" json:"midgard_url"`

		Adapters map[string]string `mapstructure:"adapters" json:"adapters"`
	} `mapstructure:"harness" json:"harness"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up matching process environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the SYNN_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("SYNN_ENV", ""))
}
