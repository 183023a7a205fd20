package dto

import "github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"

type CreateEvaluationRequest struct {
	Evaluation *models.EvaluationInput `json:"evaluation"`
}

type EvaluationResponse struct {
	Evaluation *models.Evaluation `json:"evaluation"`
	Error      string             `json:"error,omitempty"`
}

type EvaluationsResponse struct {
	Evaluations []models.Evaluation `json:"evaluations"`
	Error       string              `json:"error,omitempty"`
}

type UpdateEvaluationResponse struct {
	Update bool   `json:"update"`
	Error  string `json:"error,omitempty"`
}
