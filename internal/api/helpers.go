package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tinylm/internal/tensor"
)

func writeJSON(c *echo.Context, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(body)
	return err
}

func writeBadRequest(c *echo.Context, err error) error {
	var ir invalidRequestError
	if errors.As(err, &ir) {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", ir.msg, ir.param, ir.code)
	}
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("invalid_json", "", fmt.Sprintf("invalid request body: %v", err))
	}
	return out, nil
}

func newForwardID() string {
	return "fwd_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// matRows copies m into a row-major [][]float32 for encoding.
func matRows(m *tensor.Mat) [][]float32 {
	rows := make([][]float32, m.R)
	for i := range rows {
		rows[i] = append([]float32(nil), m.Row(i)...)
	}
	return rows
}

func predictions(logits *tensor.Mat) []Prediction {
	out := make([]Prediction, logits.R)
	for i := range out {
		row := logits.Row(i)
		best := tensor.ArgMax(row)
		out[i] = Prediction{Position: i, Token: best, Logit: row[best]}
	}
	return out
}
