package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrValueNotOwned is returned when an attribute value reference does not
	// belong to the attribute it is being associated under.
	ErrValueNotOwned = errors.New("attribute value not owned by attribute")

	// ErrNoPriceTier is returned when a row carries no positive price tier and
	// therefore cannot produce any variant.
	ErrNoPriceTier = errors.New("no positive price tier")
)
