package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// InsufficientFundsResponse is returned when a purchase or debit cannot be
// covered by the wallet balance.
type InsufficientFundsResponse struct {
	Error    string `json:"error" example:"insufficient funds"`
	Balance  int64  `json:"balance" example:"120"`
	Required int64  `json:"required" example:"300"`
}
