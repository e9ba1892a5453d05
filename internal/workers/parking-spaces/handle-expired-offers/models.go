package handleexpiredoffers

import (
	"parkingspace-workers/internal/common/validation"
	"parkingspace-workers/internal/processes/parkingspaces"
)

// Output is the batch summary carried in the completed job's data.
type Output = parkingspaces.BatchSummary

// Scheduler-started jobs carry no required variables.
var inputSchema = validation.MustCompile(`{"type": "object"}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
