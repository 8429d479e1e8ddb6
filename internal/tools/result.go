package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
)

// Kind classifies a failed dispatch so an autonomous caller can branch on it.
type Kind string

const (
	KindUnknownOperation Kind = "unknown_operation"
	KindInvalidArgument  Kind = "invalid_argument"
	KindNotFound         Kind = "not_found"
	KindInternal         Kind = "internal"
)

var (
	// ErrUnknownOperation is returned for names outside the catalog.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgumentError reports a schema violation for one field.
type ArgumentError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Operation, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// Failure is the error half of a Result.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result is the structured outcome of a dispatch. Exactly one of Text
// (on success) or Error (on failure) is meaningful.
type Result struct {
	Operation string   `json:"operation"`
	OK        bool     `json:"ok"`
	Text      string   `json:"text,omitempty"`
	Data      any      `json:"data,omitempty"`
	Error     *Failure `json:"error,omitempty"`
}

func success(op, text string, data any) Result {
	return Result{Operation: op, OK: true, Text: text, Data: data}
}

func jsonSuccess(op string, data any) Result {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return failure(op, fmt.Errorf("marshaling %s result: %w", op, err))
	}
	return success(op, string(b), data)
}

// failure maps an error onto the taxonomy.
func failure(op string, err error) Result {
	f := &Failure{Kind: KindInternal, Message: err.Error()}

	var argErr *ArgumentError
	switch {
	case errors.As(err, &argErr):
		f.Kind = KindInvalidArgument
		f.Field = argErr.Field
	case errors.Is(err, ErrUnknownOperation):
		f.Kind = KindUnknownOperation
	case errors.Is(err, inventory.ErrNotFound):
		f.Kind = KindNotFound
	}
	return Result{Operation: op, OK: false, Error: f}
}

// Kind returns the failure kind, or "" for a successful result.
func (r Result) Kind() Kind {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind
}

// String renders the result as conversational text.
func (r Result) String() string {
	if r.OK {
		return r.Text
	}
	if r.Error == nil {
		return fmt.Sprintf("Error executing %s", r.Operation)
	}
	return r.Error.Message
}
