package withdrawapplication

import (
	"fmt"

	"parkingspace-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

type Input struct {
	ApplicantID int    `json:"applicantId"`
	ContactCode string `json:"contactCode,omitempty"`
	By          string `json:"by"`
}

// A user withdrawal must name the contact that owns the application.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["applicantId", "by"],
	"properties": {
		"applicantId": {"type": "integer", "minimum": 1},
		"contactCode": {"type": "string"},
		"by": {"type": "string", "enum": ["user", "manager"]}
	},
	"if": {"properties": {"by": {"const": "user"}}},
	"then": {
		"required": ["contactCode"],
		"properties": {"contactCode": {"minLength": 1}}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return &input, nil
}
