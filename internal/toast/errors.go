package toast

import (
	"errors"

	"github.com/jmylchreest/toastd/internal/model"
)

var (
	// ErrRenderFailure is matched by every RenderError.
	ErrRenderFailure = errors.New("render failure")
	// ErrDisposed is returned by Show after Dispose.
	ErrDisposed = errors.New("controller disposed")
)

// RenderError reports that a renderer could not produce a widget.
type RenderError struct {
	ContentType model.ContentType
	Message     string
	Cause       error
}

func (e *RenderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrRenderFailure.Error()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrRenderFailure) true for any RenderError.
func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailure
}
