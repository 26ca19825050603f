package response

// Response is the common envelope every API handler returns.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OK() Response {
	return Response{Success: true}
}

func Error(msg string) Response {
	return Response{Success: false, Error: msg}
}
