package vk

import "fmt"

// APIError is the error object VK returns in place of a response.
type APIError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Msg)
}

// HTTPError reports a non-200 status from the API endpoint.
type HTTPError struct {
	Method     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Method, e.StatusCode)
}
