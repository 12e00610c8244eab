package models

// Envelope is the body of every JSON API response. Details is only set for
// validation failures and maps a field name to its message.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func OK(data interface{}, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

func Fail(err string) Envelope {
	return Envelope{Success: false, Error: err}
}
