package commands

import (
	"errors"
	"fmt"
	"io"

	"listshare/internal/engine"
	"listshare/internal/exitcode"
	"listshare/internal/service"
)

// ReportError prints err and returns the matching exit code.
func ReportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, engine.ErrNoSpace):
		fmt.Fprintln(errOut, "error: no space (run: listshare init <name> or listshare join <url>)")
		return exitcode.SpaceError
	case errors.Is(err, engine.ErrInvalidToken):
		fmt.Fprintln(errOut, "error: space not found, token cleared (run: listshare join <url>)")
		return exitcode.SpaceError
	case errors.Is(err, service.ErrNotConfigured):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, engine.ErrListNotFound),
		errors.Is(err, engine.ErrItemNotFound),
		errors.Is(err, engine.ErrAuthorRequired),
		errors.Is(err, engine.ErrMissingSpaceID),
		errors.Is(err, ErrAmbiguousList),
		errors.Is(err, ErrItemRefRequired),
		errors.Is(err, ErrInvalidItemRef):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
