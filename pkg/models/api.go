package models

// ErrorResponse is the JSON body for failed API requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
