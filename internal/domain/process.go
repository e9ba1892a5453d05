// internal/domain/process.go
package domain

type ProcessStatus string

const (
	ProcessStatusSuccessful ProcessStatus = "successful"
	ProcessStatusFailed     ProcessStatus = "failed"
	ProcessStatusInProgress ProcessStatus = "inProgress"
)

// ProcessResult is the uniform envelope returned by every workflow entry point.
type ProcessResult struct {
	ProcessStatus ProcessStatus `json:"processStatus"`
	HTTPStatus    int           `json:"httpStatus"`
	Error         string        `json:"error,omitempty"`
	Data          interface{}   `json:"data,omitempty"`
	Response      *Response     `json:"response,omitempty"`
}

type Response struct {
	Message string `json:"message"`
}

func (r ProcessResult) Succeeded() bool {
	return r.ProcessStatus == ProcessStatusSuccessful
}
