package model

// GenerateRequest represents the request payload for generating codes.
type GenerateRequest struct {
	Count  int `json:"count"`
	Length int `json:"length"`
}

// GenerateResponse represents the response payload for a generation call.
type GenerateResponse struct {
	Success bool `json:"success"`
}

// UseCodeRequest represents the request payload for redeeming a code.
type UseCodeRequest struct {
	Code string `json:"code"`
}

// UseCodeResponse represents the response payload for a redemption attempt.
type UseCodeResponse struct {
	Code    string        `json:"code"`
	Result  UseCodeResult `json:"result"`
	Message string        `json:"message,omitempty"`
}

// StatsResponse represents the response payload for code statistics.
type StatsResponse struct {
	Total int64 `json:"total"`
}
