package createoffer

import (
	"fmt"

	"parkingspace-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

type Input struct {
	ListingID int `json:"listingId"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["listingId"],
	"properties": {
		"listingId": {"type": "integer", "minimum": 1}
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
