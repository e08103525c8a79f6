package config

// Package config provides a reusable loader for this node's configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/prix-uniris/archethic-node/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a node. It mirrors the
// structure of the YAML files under cmd/config.
type Config struct {
	Network struct {
		ID              string   `mapstructure:"id" json:"id"`
		MaxPeers        int      `mapstructure:"max_peers" json:"max_peers"`
		ListenAddr      string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag    string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers  []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
		AuthorizedNodes []string `mapstructure:"authorized_nodes" json:"authorized_nodes"`
	} `mapstructure:"network" json:"network"`

	Mining struct {
		GlobalTimeout    time.Duration `mapstructure:"global_timeout" json:"global_timeout"`
		PeerRPCTimeout   time.Duration `mapstructure:"peer_rpc_timeout" json:"peer_rpc_timeout"`
		WriterPoolSize   int           `mapstructure:"writer_pool_size" json:"writer_pool_size"`
		StorageQuorum    int           `mapstructure:"storage_quorum" json:"storage_quorum"` // loaded only; replication always requires all elected chain-storage replicas
		Curve            string        `mapstructure:"curve" json:"curve"`
		HashAlgo         string        `mapstructure:"hash_algo" json:"hash_algo"`
	} `mapstructure:"mining" json:"mining"`

	Storage struct {
		DBPath      string  `mapstructure:"db_path" json:"db_path"`
		SubsetCount int     `mapstructure:"subset_count" json:"subset_count"`
		BloomFPP    float64 `mapstructure:"bloom_fpp" json:"bloom_fpp"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	_ = godotenv.Load(".env")

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

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ARCHETHIC_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ARCHETHIC_ENV", ""))
}
