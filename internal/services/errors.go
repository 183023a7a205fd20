package services

import "errors"

// User-facing failures. Handlers send err.Error() back in the error field, so
// these read as messages.
var (
	ErrUserCreate        = errors.New("failed to create user")
	ErrUserUpdate        = errors.New("failed to update user")
	ErrUserUpdateEmail   = errors.New("failed to update email address")
	ErrUserDeleteAuth0   = errors.New("failed to cancel sign-up")
	ErrUserDelete        = errors.New("failed to delete user")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInputRequired = errors.New("user input is required")
	ErrAuth0IDTaken      = errors.New("an account already exists for this login")

	ErrEvaluationCreate        = errors.New("failed to create evaluation")
	ErrEvaluationGet           = errors.New("failed to get evaluations")
	ErrEvaluationUpdate        = errors.New("failed to update evaluation")
	ErrEvaluationNotFound      = errors.New("evaluation not found")
	ErrEvaluationInputRequired = errors.New("evaluation input is required")
	ErrInvalidPoint            = errors.New("each rating point must be between 1 and 5")
	ErrContentRejected         = errors.New("evaluation text rejected")
	ErrNotOwner                = errors.New("only the evaluated user can do this")
)
