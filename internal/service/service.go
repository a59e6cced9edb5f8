package service

import (
	"context"
	"errors"
	"fmt"
)

// Store defines the remote backend operations.
// All persistence goes through this interface; the engine never talks to a
// database or HTTP endpoint directly. List operations are always filtered by
// space ID as well as list ID.
type Store interface {
	// SpaceByToken returns the space whose token equals token.
	// Returns nil, nil when no such space exists.
	SpaceByToken(ctx context.Context, token string) (*Space, error)

	// InsertSpace creates a space and returns the stored row.
	InsertSpace(ctx context.Context, space NewSpace) (Space, error)

	// ListsBySpace returns every list of a space in storage order.
	ListsBySpace(ctx context.Context, spaceID string) ([]List, error)

	// InsertList creates a list and returns the stored row.
	InsertList(ctx context.Context, list NewList) (List, error)

	// UpdateList applies patch to the list matching id and spaceID.
	// Returns the updated rows; zero rows means nothing matched.
	UpdateList(ctx context.Context, id, spaceID string, patch ListPatch) ([]List, error)

	// DeleteList removes the list matching id and spaceID.
	DeleteList(ctx context.Context, id, spaceID string) error
}

// RemoteError is a failure reported by the remote store.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	switch {
	case e.Code != "" && e.Status != 0:
		return fmt.Sprintf("remote %d %s: %s", e.Status, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("remote %s: %s", e.Code, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("remote %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// ErrNotConfigured is returned when a backend is missing required settings.
var ErrNotConfigured = errors.New("backend not configured")
