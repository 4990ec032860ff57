package handler

// Response is the envelope of every JSON answer.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// MessageResponse is returned by actions without a resource to show.
func MessageResponse(message string) *Response {
	return &Response{
		Status:  "success",
		Message: message,
	}
}
