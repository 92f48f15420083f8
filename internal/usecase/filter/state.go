package filter

import (
	"errors"

	"example.com/storefront/internal/domain/listing"
	"example.com/storefront/internal/domain/remote"
)

var ErrNotLoaded = errors.New("listing not loaded")

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the load state of a listing. Message is set only in the Error state.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortState struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// View is a consistent copy of a controller's state.
type View[R any] struct {
	Kind        listing.Kind     `json:"kind"`
	Applied     listing.Filter   `json:"applied"`
	Held        listing.Filter   `json:"held"`
	Cardinality int              `json:"cardinality"`
	Status      Status           `json:"status"`
	Sort        *SortState       `json:"sort,omitempty"`
	Page        *listing.Page[R] `json:"page,omitempty"`
}

func errorMessage(err error) string {
	if remote.IsTransient(err) {
		return "The listing is temporarily unavailable. Please retry."
	}
	return "The listing could not be loaded."
}
