package handler

import "time"

// Response is the uniform envelope every endpoint returns, success or
// failure: {code, message, data?, timestamp}.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// OK builds a success envelope.
func OK(message string, data interface{}) Response {
	return Response{Code: 200, Message: message, Data: data, Timestamp: time.Now().UTC()}
}

// Fail builds a failure envelope. Data carries structured detail such as the
// field→message map on validation errors.
func Fail(code int, message string, data interface{}) Response {
	return Response{Code: code, Message: message, Data: data, Timestamp: time.Now().UTC()}
}
