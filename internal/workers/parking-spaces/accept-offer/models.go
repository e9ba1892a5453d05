package acceptoffer

import (
	"fmt"

	"parkingspace-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

type Input struct {
	OfferID int `json:"offerId"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["offerId"],
	"properties": {
		"offerId": {"type": "integer", "minimum": 1}
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
