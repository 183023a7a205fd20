package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type IconKeyResponse struct {
	IconKey *string `json:"iconKey"`
	Error   string  `json:"error,omitempty"`
}

type IconResponse struct {
	Icon  *string `json:"icon"`
	Error string  `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	Backend   string `json:"backend"`
}
