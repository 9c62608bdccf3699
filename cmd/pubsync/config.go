package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// registerDefaults makes every configuration key known to v so that
// environment variables resolve through AutomaticEnv.
func registerDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault("content_dir", cfg.ContentDir)

	v.SetDefault("registry.base_url", cfg.Registry.BaseURL)
	v.SetDefault("registry.timeout", cfg.Registry.Timeout)
	v.SetDefault("registry.user_agent", cfg.Registry.UserAgent)
	v.SetDefault("registry.site", cfg.Registry.Site)
	v.SetDefault("registry.mailto", cfg.Registry.Mailto)
	v.SetDefault("registry.plus_token", cfg.Registry.PlusToken)
	v.SetDefault("registry.max_retries", cfg.Registry.MaxRetries)

	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("sync.group_size", cfg.Sync.GroupSize)
	v.SetDefault("sync.batch_delay", cfg.Sync.BatchDelay)
	v.SetDefault("sync.max_jitter", cfg.Sync.MaxJitter)
	v.SetDefault("sync.import_delay", cfg.Sync.ImportDelay)

	v.SetDefault("index.path", cfg.Index.Path)
	v.SetDefault("index.max_results", cfg.Index.MaxResults)

	v.SetDefault("serve.addr", cfg.Serve.Addr)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig merges defaults, the config file, environment variables and
// bound flags into a Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	registerDefaults(v, cfg)

	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Sync.GroupSize <= 0 {
		return types.Config{}, fmt.Errorf("sync.group_size must be positive, got %d", cfg.Sync.GroupSize)
	}
	if cfg.Cache.TTL <= 0 {
		return types.Config{}, fmt.Errorf("cache.ttl must be positive, got %s", cfg.Cache.TTL)
	}
	return cfg, nil
}
