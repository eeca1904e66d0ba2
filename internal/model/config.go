package model

import "fmt"

// Config holds the dimensions of a LanguageModel.  It is fixed at
// construction and determines every derived weight shape.
type Config struct {
	VocabSize int `yaml:"vocab_size" json:"vocab_size"`
	DModel    int `yaml:"d_model" json:"d_model"`
	MaxSeqLen int `yaml:"max_seq_len" json:"max_seq_len"`
	NumBlocks int `yaml:"num_blocks" json:"num_blocks"`
	NumHeads  int `yaml:"num_heads" json:"num_heads"`
	DFF       int `yaml:"d_ff" json:"d_ff"`

	// HeadWorkers bounds the goroutines used to evaluate attention heads.
	// 0 picks GOMAXPROCS clamped to NumHeads; 1 runs heads serially.
	HeadWorkers int `yaml:"head_workers" json:"head_workers"`
}

// DefaultConfig mirrors the demo model: a 1000 token vocabulary, 64 wide,
// four blocks of four heads and a 4x feed-forward expansion.
func DefaultConfig() Config {
	return Config{
		VocabSize: 1000,
		DModel:    64,
		MaxSeqLen: 100,
		NumBlocks: 4,
		NumHeads:  4,
		DFF:       256,
	}
}

// HeadDim is d_k = d_v = DModel / NumHeads.  Only meaningful on a valid config.
func (c Config) HeadDim() int {
	if c.NumHeads <= 0 {
		return 0
	}
	return c.DModel / c.NumHeads
}

// Validate checks every dimension at once and returns the first violation as
// a *ConfigError.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"vocab_size", c.VocabSize},
		{"d_model", c.DModel},
		{"max_seq_len", c.MaxSeqLen},
		{"num_blocks", c.NumBlocks},
		{"num_heads", c.NumHeads},
		{"d_ff", c.DFF},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return configErrorf(p.name, "must be positive, got %d", p.v)
		}
	}
	if c.HeadWorkers < 0 {
		return configErrorf("head_workers", "must not be negative, got %d", c.HeadWorkers)
	}
	if c.DModel%c.NumHeads != 0 {
		return configErrorf("num_heads", "d_model %d is not divisible by num_heads %d", c.DModel, c.NumHeads)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("vocab=%d d_model=%d max_seq_len=%d blocks=%d heads=%d d_ff=%d",
		c.VocabSize, c.DModel, c.MaxSeqLen, c.NumBlocks, c.NumHeads, c.DFF)
}
