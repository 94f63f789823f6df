// Package idxconfig loads buffer-pool capacity and storage-directory
// settings from a YAML config file (the page size is not configurable;
// it is the pagestore.PageSize constant), the same way tuannm99-novasql's internal config
// loader and bunbase's pkg/config do: viper.New, SetConfigFile,
// Unmarshal into a typed struct.
package idxconfig

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the knobs an index build or open needs beyond what the
// on-disk metadata page already records.
type Config struct {
	Storage struct {
		RelationDir string `mapstructure:"relation_dir"`
		IndexDir    string `mapstructure:"index_dir"`
	} `mapstructure:"storage"`
	BufferPool struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"buffer_pool"`
}

// DefaultBufferPoolCapacity is used when a config file does not set
// buffer_pool.capacity. It mirrors the small default other pack buffer
// pools use (tuannm99-novasql/internal/bufferpool.DefaultCapacity).
const DefaultBufferPoolCapacity = 128

// Default returns a Config with sane defaults for the current
// directory, used by the CLI when no --config file is given.
func Default() *Config {
	var c Config
	c.Storage.RelationDir = "."
	c.Storage.IndexDir = "."
	c.BufferPool.Capacity = DefaultBufferPoolCapacity
	return &c
}

// Load reads a YAML config file at path and fills in defaults for any
// field the file does not set.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.relation_dir", ".")
	v.SetDefault("storage.index_dir", ".")
	v.SetDefault("buffer_pool.capacity", DefaultBufferPoolCapacity)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("idxconfig: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("idxconfig: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// IndexFileName builds the "{relation}.{offset}" index file name
// spec.md §6 mandates for a relation and the attribute it is indexed
// on. It names the on-disk *index* file a caller may choose to create;
// it has nothing to do with the relationName an Index's metadata page
// stores and validates on reopen (cmd/btreeidx derives that separately,
// from the relation file's own path).
func (c *Config) IndexFileName(relationName string, attrByteOffset int) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}
