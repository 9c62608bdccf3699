// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfigFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
content_dir: content/pubs
registry:
  mailto: lab@example.edu
  timeout: 5s
  max_retries: 2
cache:
  ttl: 48h
sync:
  group_size: 3
  batch_delay: 1s
`)))

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "content/pubs", cfg.ContentDir)
	assert.Equal(t, "lab@example.edu", cfg.Registry.Mailto)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, 2, cfg.Registry.MaxRetries)
	assert.Equal(t, 48*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Sync.GroupSize)
	assert.Equal(t, time.Second, cfg.Sync.BatchDelay)
	assert.Equal(t, types.DefaultMaxJitter, cfg.Sync.MaxJitter, "unset keys keep defaults")
	assert.Equal(t, types.DefaultRegistryURL, cfg.Registry.BaseURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PUBSYNC_CACHE_PATH", "/tmp/cache.json")
	t.Setenv("PUBSYNC_SYNC_GROUP_SIZE", "7")

	v := viper.New()
	v.SetEnvPrefix("PUBSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cache.json", cfg.Cache.Path)
	assert.Equal(t, 7, cfg.Sync.GroupSize)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "zero group size", key: "sync.group_size", val: 0},
		{name: "zero ttl", key: "cache.ttl", val: "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := loadConfig(v)
			assert.Error(t, err)
		})
	}
}
