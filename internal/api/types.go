package api

import "github.com/samcharles93/tinylm/internal/model"

// ForwardRequest is the body of POST /v1/forward.
type ForwardRequest struct {
	Tokens        []int `json:"tokens"`
	IncludeLogits bool  `json:"include_logits,omitempty"`
	Attention     bool  `json:"attention,omitempty"`
}

// Prediction is the highest-scoring vocabulary entry at one position.
type Prediction struct {
	Position int     `json:"position"`
	Token    int     `json:"token"`
	Logit    float32 `json:"logit"`
}

// ForwardResponse is returned by POST /v1/forward and GET /v1/forward/:id.
type ForwardResponse struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	CreatedAt   int64           `json:"created_at"`
	Tokens      []int           `json:"tokens"`
	Shape       [2]int          `json:"shape"`
	Predictions []Prediction    `json:"predictions"`
	Logits      [][]float32     `json:"logits,omitempty"`
	Attention   [][][][]float32 `json:"attention,omitempty"` // [block][head][row][col]
	DurationMS  float64         `json:"duration_ms"`
}

// ModelResponse describes the served model.
type ModelResponse struct {
	Object     string                `json:"object"`
	Config     model.Config          `json:"config"`
	HeadDim    int                   `json:"head_dim"`
	Parameters model.ParameterCounts `json:"parameters"`
}

// DeleteResponse acknowledges DELETE /v1/forward/:id.
type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// ResponseError is the body under the "error" key of every failed request.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
