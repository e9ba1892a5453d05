package applyforparkingspace

import (
	"fmt"

	"parkingspace-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

type Input struct {
	ParkingSpaceID  string `json:"parkingSpaceId"`
	ContactCode     string `json:"contactCode"`
	ApplicationType string `json:"applicationType"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["parkingSpaceId", "contactCode", "applicationType"],
	"properties": {
		"parkingSpaceId": {"type": "string", "minLength": 1},
		"contactCode": {"type": "string", "minLength": 1},
		"applicationType": {"type": "string", "enum": ["Replace", "Additional"]}
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
