package applyforparkingspace

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/domain"
	"parkingspace-workers/internal/processes/parkingspaces"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ApplyForParkingSpace(ctx context.Context, in parkingspaces.ApplyInput) domain.ProcessResult {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.ProcessResult)
}

func createMockJob(t *testing.T, variables map[string]interface{}) entities.Job {
	t.Helper()
	raw, err := json.Marshal(variables)
	require.NoError(t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                42,
		Type:               TaskType,
		ProcessInstanceKey: 420,
		BpmnProcessId:      "parking-space-application",
		Retries:            3,
		Variables:          string(raw),
	}}
}

func createValidVariables() map[string]interface{} {
	return map[string]interface{}{
		"parkingSpaceId":  "705-808-00-0006",
		"contactCode":     "P12345",
		"applicationType": "Replace",
		"requestedBy":     "mimer-portal",
	}
}

func createHandler(t *testing.T, svc Service) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Service: svc, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestNewHandler_RequiresService(t *testing.T) {
	h, err := NewHandler(HandlerOptions{})
	assert.Nil(t, h)
	assert.ErrorContains(t, err, TaskType)
}

func TestInputSchema(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		valid  bool
	}{
		{name: "valid", mutate: func(map[string]interface{}) {}, valid: true},
		{name: "additional", mutate: func(v map[string]interface{}) { v["applicationType"] = "Additional" }, valid: true},
		{name: "missing parking space", mutate: func(v map[string]interface{}) { delete(v, "parkingSpaceId") }},
		{name: "empty contact", mutate: func(v map[string]interface{}) { v["contactCode"] = "" }},
		{name: "unknown application type", mutate: func(v map[string]interface{}) { v["applicationType"] = "Swap" }},
		{name: "numeric parking space", mutate: func(v map[string]interface{}) { v["parkingSpaceId"] = 7058 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := createValidVariables()
			tt.mutate(vars)
			res := GetInputSchema().Validate(vars)
			assert.Equal(t, tt.valid, res.Valid, res.GetErrorMessages())
		})
	}
}

func TestHandler_Process(t *testing.T) {
	svc := new(MockService)
	want := domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusSuccessful,
		HTTPStatus:    http.StatusOK,
		Response:      &domain.Response{Message: "Applicant P12345 successfully applied to parking space 705-808-00-0006"},
	}
	svc.On("ApplyForParkingSpace", mock.Anything, parkingspaces.ApplyInput{
		ParkingSpaceID:  "705-808-00-0006",
		ContactCode:     "P12345",
		ApplicationType: "Replace",
	}).Return(want).Once()

	h := createHandler(t, svc)
	got := h.process(t.Context(), createMockJob(t, createValidVariables()))

	assert.Equal(t, want, got)
	svc.AssertExpectations(t)
}

func TestHandler_ProcessUndecodableVariables(t *testing.T) {
	svc := new(MockService)
	h := createHandler(t, svc)

	job := createMockJob(t, nil)
	job.Variables = `{"parkingSpaceId": ["705"]}`

	got := h.process(t.Context(), job)

	assert.Equal(t, domain.ProcessStatusFailed, got.ProcessStatus)
	assert.Equal(t, "invalid-input", got.Error)
	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
	svc.AssertNotCalled(t, "ApplyForParkingSpace", mock.Anything, mock.Anything)
}

func TestHandler_ExecutePassesFailuresThrough(t *testing.T) {
	svc := new(MockService)
	rejected := domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusFailed,
		HTTPStatus:    http.StatusForbidden,
		Error:         "applicant-not-tenant",
	}
	svc.On("ApplyForParkingSpace", mock.Anything, mock.Anything).Return(rejected).Once()

	got := createHandler(t, svc).Execute(t.Context(), &Input{
		ParkingSpaceID:  "705-808-00-0006",
		ContactCode:     "P99999",
		ApplicationType: "Additional",
	})

	assert.Equal(t, rejected, got)
	svc.AssertExpectations(t)
}
