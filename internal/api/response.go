package api

// Response is the uniform contract of the action endpoint: a success
// flag, a human-readable message or error string, and an optional
// payload (data for single objects, dataset for lists).
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Dataset interface{} `json:"dataset,omitempty"`
}

// OK builds a success response with a message
func OK(message string) Response {
	return Response{Status: true, Message: message}
}

// OKData builds a success response carrying a single object
func OKData(message string, data interface{}) Response {
	return Response{Status: true, Message: message, Data: data}
}

// OKDataset builds a success response carrying a list
func OKDataset(message string, dataset interface{}) Response {
	return Response{Status: true, Message: message, Dataset: dataset}
}

// Fail builds a failure response with an error string
func Fail(err string) Response {
	return Response{Status: false, Error: err}
}
