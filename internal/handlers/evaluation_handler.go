package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/services"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type EvaluationHandler struct {
	evaluationService *services.EvaluationService
	userService       *services.UserService
}

func NewEvaluationHandler(evaluationService *services.EvaluationService, userService *services.UserService) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		userService:       userService,
	}
}

// Create accepts either {"evaluation": {...}} as JSON, or a multipart form
// with the same JSON in an "evaluation" field plus an optional "icon" file.
func (h *EvaluationHandler) Create(c *fiber.Ctx) error {
	input, icon, err := parseEvaluation(c)
	if err != nil {
		return c.JSON(dto.EvaluationResponse{Error: fail(c, "evaluation upload failed", err)})
	}
	if input == nil {
		return c.JSON(dto.EvaluationResponse{Error: services.ErrEvaluationInputRequired.Error()})
	}

	ev, err := h.evaluationService.CreateWithIcon(c.UserContext(), input, c.Params("userId"), icon)
	if err != nil {
		return c.JSON(dto.EvaluationResponse{Error: fail(c, "evaluation create failed", err)})
	}
	return c.JSON(dto.EvaluationResponse{Evaluation: ev})
}

// parseEvaluation reads the submission and, for multipart requests, the
// optional icon. Nothing is uploaded here.
func parseEvaluation(c *fiber.Ctx) (*models.EvaluationInput, *storage.Icon, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		var req dto.CreateEvaluationRequest
		if err := c.BodyParser(&req); err != nil || req.Evaluation == nil {
			return nil, nil, nil
		}
		// Icon keys only come from this service's own evaluator uploads.
		if !strings.HasPrefix(req.Evaluation.EvaluatorIconKey, "evaluator/") {
			req.Evaluation.EvaluatorIconKey = ""
		}
		return req.Evaluation, nil, nil
	}

	raw := c.FormValue("evaluation")
	if raw == "" {
		return nil, nil, nil
	}
	var input models.EvaluationInput
	if err := c.App().Config().JSONDecoder([]byte(raw), &input); err != nil {
		return nil, nil, nil
	}
	input.EvaluatorIconKey = ""

	icon, err := readIcon(c)
	if err != nil {
		return nil, nil, err
	}
	return &input, icon, nil
}

// Detail shows one evaluation. Unpublished ones are only shown to the
// evaluatee; everyone else gets not found.
func (h *EvaluationHandler) Detail(c *fiber.Ctx) error {
	ev, err := h.evaluationService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.JSON(dto.EvaluationResponse{Error: fail(c, "evaluation lookup failed", err)})
	}
	if ev.IsDeleted {
		return c.JSON(dto.EvaluationResponse{Error: services.ErrEvaluationNotFound.Error()})
	}
	if !ev.IsPublished {
		if err := h.requireOwner(c, ev.EvaluateeID); err != nil {
			return c.JSON(dto.EvaluationResponse{Error: services.ErrEvaluationNotFound.Error()})
		}
	}
	h.evaluationService.AttachIcon(c.UserContext(), ev)
	return c.JSON(dto.EvaluationResponse{Evaluation: ev})
}

// All lists published and unpublished evaluations for their evaluatee.
func (h *EvaluationHandler) All(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := h.requireOwner(c, userID); err != nil {
		return c.JSON(dto.EvaluationsResponse{Error: fail(c, "evaluation list denied", err)})
	}

	evs, err := h.evaluationService.ListAll(c.UserContext(), userID)
	if err != nil {
		return c.JSON(dto.EvaluationsResponse{Error: fail(c, "evaluation list failed", err)})
	}
	return c.JSON(dto.EvaluationsResponse{Evaluations: evs})
}

func (h *EvaluationHandler) Published(c *fiber.Ctx) error {
	evs, err := h.evaluationService.ListPublished(c.UserContext(), c.Params("userId"))
	if err != nil {
		return c.JSON(dto.EvaluationsResponse{Error: fail(c, "published evaluation list failed", err)})
	}
	return c.JSON(dto.EvaluationsResponse{Evaluations: evs})
}

func (h *EvaluationHandler) Publish(c *fiber.Ctx) error {
	return h.update(c, services.UpdateEvaluationInput{IsPublished: boolPtr(true)})
}

func (h *EvaluationHandler) Unpublish(c *fiber.Ctx) error {
	return h.update(c, services.UpdateEvaluationInput{IsPublished: boolPtr(false)})
}

func (h *EvaluationHandler) Delete(c *fiber.Ctx) error {
	return h.update(c, services.UpdateEvaluationInput{IsDeleted: boolPtr(true)})
}

func (h *EvaluationHandler) update(c *fiber.Ctx, in services.UpdateEvaluationInput) error {
	userID := c.Params("userId")
	if err := h.requireOwner(c, userID); err != nil {
		return c.JSON(dto.UpdateEvaluationResponse{Error: fail(c, "evaluation update denied", err)})
	}

	in.EvaluationID = c.Params("evaluationId")
	in.EvaluateeID = userID
	updated, err := h.evaluationService.Update(c.UserContext(), in)
	if err != nil {
		return c.JSON(dto.UpdateEvaluationResponse{Error: fail(c, "evaluation update failed", err)})
	}
	return c.JSON(dto.UpdateEvaluationResponse{Update: updated})
}

// requireOwner checks the caller's account is the user identified by userID.
func (h *EvaluationHandler) requireOwner(c *fiber.Ctx, userID string) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return services.ErrNotOwner
	}
	caller, err := h.userService.GetByAuth0ID(c.UserContext(), auth0ID)
	if err != nil {
		return err
	}
	if caller.ID != userID {
		return services.ErrNotOwner
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
