package errors

import (
	"errors"
	"log/slog"
	"slices"
)

// Log logs an error using the default slog logger, extracting metadata if it's
// a StructuredError. The "hint" field, if any, is always logged last.
func Log(err error) {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		slog.Error(err.Error())
		return
	}

	args := make([]any, 0, len(serr.metadata)*2+2)

	cause := serr.metadata["cause"]
	if serr.cause != nil {
		cause = serr.cause.Error()
	}
	if cause != nil {
		args = append(args, "cause", cause)
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		if k != "cause" && k != "hint" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}
	if hint, ok := serr.metadata["hint"]; ok {
		args = append(args, "hint", hint)
	}

	slog.Error(serr.Error(), args...)
}
