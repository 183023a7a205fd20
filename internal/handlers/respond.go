package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/services"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/gofiber/fiber/v2"
)

const genericFailure = "internal server error"

// publicErrors are sent back by their own text; anything else is replaced
// with genericFailure.
var publicErrors = []error{
	services.ErrUserNotFound,
	services.ErrUserInputRequired,
	services.ErrAuth0IDTaken,
	services.ErrUserCreate,
	services.ErrUserUpdate,
	services.ErrUserUpdateEmail,
	services.ErrUserDeleteAuth0,
	services.ErrUserDelete,
	services.ErrEvaluationNotFound,
	services.ErrEvaluationInputRequired,
	services.ErrEvaluationCreate,
	services.ErrEvaluationGet,
	services.ErrEvaluationUpdate,
	services.ErrNotOwner,
	storage.ErrIconType,
	storage.ErrIconCreate,
	storage.ErrIconGet,
}

// detailedErrors wrap a reason written for the caller, so the full text is kept.
var detailedErrors = []error{
	services.ErrInvalidPoint,
	services.ErrContentRejected,
}

// expectedErrors are caller mistakes; they are logged below ERROR.
var expectedErrors = []error{
	services.ErrUserNotFound,
	services.ErrUserInputRequired,
	services.ErrAuth0IDTaken,
	services.ErrEvaluationNotFound,
	services.ErrEvaluationInputRequired,
	services.ErrInvalidPoint,
	services.ErrContentRejected,
	services.ErrNotOwner,
	storage.ErrIconType,
}

func errorMessage(err error) string {
	for _, target := range detailedErrors {
		if errors.Is(err, target) {
			return err.Error()
		}
	}
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return genericFailure
}

// fail logs err with request context and returns the message for the body.
func fail(c *fiber.Ctx, msg string, err error) string {
	auth0ID, _ := middleware.Auth0ID(c)
	attrs := []any{
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"auth0_id", auth0ID,
		"route", c.Route().Path,
		"error", err,
	}

	level := slog.LevelError
	for _, target := range expectedErrors {
		if errors.Is(err, target) {
			level = slog.LevelWarn
			break
		}
	}
	slog.Log(c.UserContext(), level, msg, attrs...)
	return errorMessage(err)
}
