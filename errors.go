package ingredientagent

import "errors"

var (
	ErrNotConfigured    = errors.New("collaborator not configured")
	ErrInvalidSkinType  = errors.New("invalid skin type")
	ErrInvalidExpertise = errors.New("invalid expertise level")
	ErrNoIngredients    = errors.New("no ingredients provided")
	ErrMaxStepsExceeded = errors.New("exceeded maximum steps")
)
