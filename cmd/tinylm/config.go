package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/tinylm/internal/model"
)

// FileConfig is the tinylm configuration file (~/.config/tinylm/config.yaml).
// Numeric fields are pointers so "not set" is distinguishable from zero.
type FileConfig struct {
	Model ModelFileConfig `yaml:"model"`
	Seed  *int64          `yaml:"seed"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
	StoreSize     *int64 `yaml:"store_size"`
}

type ModelFileConfig struct {
	VocabSize   *int64 `yaml:"vocab_size"`
	DModel      *int64 `yaml:"d_model"`
	MaxSeqLen   *int64 `yaml:"max_seq_len"`
	NumBlocks   *int64 `yaml:"num_blocks"`
	NumHeads    *int64 `yaml:"num_heads"`
	DFF         *int64 `yaml:"d_ff"`
	HeadWorkers *int64 `yaml:"head_workers"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tinylm", "config.yaml")
}

// LoadConfig reads path.  A missing file yields a zero FileConfig unless
// required is set; a file that exists but does not parse is always an error.
func LoadConfig(path string, required bool) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig fills the logging flags from cfg when they were not set
// on the command line.
func applyLoggingConfig(isSet func(string) bool, cfg FileConfig) {
	if cfg.LogLevel != "" && !isSet("log-level") && !isSet("debug") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !isSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// resolveModelConfig builds the model configuration from flags, letting
// config file values replace flag defaults but never explicit flags.
func resolveModelConfig(isSet func(string) bool, cfg FileConfig) (model.Config, int64) {
	pick := func(flag string, fromFile *int64, fromFlag int64) int {
		if fromFile != nil && !isSet(flag) {
			return int(*fromFile)
		}
		return int(fromFlag)
	}
	mc := cfg.Model
	resolved := model.Config{
		VocabSize:   pick("vocab-size", mc.VocabSize, vocabSize),
		DModel:      pick("d-model", mc.DModel, dModel),
		MaxSeqLen:   pick("max-seq-len", mc.MaxSeqLen, maxSeqLen),
		NumBlocks:   pick("num-blocks", mc.NumBlocks, numBlocks),
		NumHeads:    pick("num-heads", mc.NumHeads, numHeads),
		DFF:         pick("d-ff", mc.DFF, dFF),
		HeadWorkers: pick("head-workers", mc.HeadWorkers, headWorkers),
	}
	s := seed
	if cfg.Seed != nil && !isSet("seed") {
		s = *cfg.Seed
	}
	return resolved, s
}

type configKey struct{}

func withFileConfig(ctx context.Context, cfg FileConfig) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func fileConfigFrom(ctx context.Context) FileConfig {
	cfg, _ := ctx.Value(configKey{}).(FileConfig)
	return cfg
}
