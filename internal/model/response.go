package model

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ClientConfig is the reward and withdrawal policy the listener app runs
// with. It is served by GET /api/config.
type ClientConfig struct {
	RewardThresholdSeconds int   `json:"rewardThresholdSeconds"`
	RewardAmount           int64 `json:"rewardAmount"`
	Repeating              bool  `json:"repeating"`
	WithdrawMinimum        int64 `json:"withdrawMinimum"`
	ServerAttested         bool  `json:"serverAttested"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment,omitempty"`
	Message     string `json:"message"`
}
