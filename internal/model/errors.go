package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports incompatible dimensions, e.g. d_model not
	// divisible by num_heads or a mask of the wrong shape.
	ErrConfiguration = errors.New("configuration error")
	// ErrIndexOutOfRange reports a token id outside [0, vocab_size).
	ErrIndexOutOfRange = errors.New("token id out of range")
	// ErrSequenceTooLong reports an input longer than max_seq_len.
	ErrSequenceTooLong = errors.New("sequence too long")
	// ErrEmptySequence reports a forward call without tokens.
	ErrEmptySequence = errors.New("empty token sequence")
)

// ConfigError names the offending field.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IndexError reports the first token id that failed the bounds check.
type IndexError struct {
	Position  int
	ID        int
	VocabSize int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("token id out of range: id %d at position %d (vocab size %d)", e.ID, e.Position, e.VocabSize)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// SequenceError reports an input length beyond the positional table.
type SequenceError struct {
	Len int
	Max int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence too long: %d > max_seq_len %d", e.Len, e.Max)
}

func (e *SequenceError) Unwrap() error { return ErrSequenceTooLong }
