package api

import (
	"errors"

	"github.com/samcharles93/tinylm/internal/model"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg   string
	code  string
	param string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(code, param, msg string) error {
	return invalidRequestError{msg: msg, code: code, param: param}
}

// classifyModelError maps model input errors onto invalid requests.  Errors
// it does not recognise are returned unchanged.
func classifyModelError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrEmptySequence):
		return newInvalidRequest("empty_sequence", "tokens", err.Error())
	case errors.Is(err, model.ErrSequenceTooLong):
		return newInvalidRequest("sequence_too_long", "tokens", err.Error())
	case errors.Is(err, model.ErrIndexOutOfRange):
		return newInvalidRequest("index_out_of_range", "tokens", err.Error())
	case errors.Is(err, model.ErrConfiguration):
		return newInvalidRequest("configuration_error", "", err.Error())
	default:
		return err
	}
}
