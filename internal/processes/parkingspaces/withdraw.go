package parkingspaces

import (
	"context"
	"net/http"
	"strconv"

	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

const processWithdraw = "withdraw-application"

const (
	WithdrawnByUser    = "user"
	WithdrawnByManager = "manager"
)

type WithdrawInput struct {
	ApplicantID int    `json:"applicantId"`
	ContactCode string `json:"contactCode"`
	By          string `json:"by"`
}

// WithdrawApplication ends an application. A user withdrawal must name the
// owning contact.
func (s *Service) WithdrawApplication(ctx context.Context, in WithdrawInput) domain.ProcessResult {
	ctx, r := s.start(ctx, processWithdraw, strconv.Itoa(in.ApplicantID), map[string]interface{}{
		"applicantId": in.ApplicantID,
		"by":          in.By,
	})

	if in.ApplicantID <= 0 {
		return s.finish(ctx, r, failed(errors.ErrCodeInvalidInput, "applicantId is required"))
	}

	var res result.Result[leasing.Empty, leasing.FetchError]
	switch in.By {
	case WithdrawnByUser:
		if in.ContactCode == "" {
			return s.finish(ctx, r, failed(errors.ErrCodeInvalidInput, "contactCode is required for user withdrawal"))
		}
		res = s.leasing.WithdrawApplicantByUser(ctx, in.ApplicantID, in.ContactCode)
	case WithdrawnByManager:
		res = s.leasing.WithdrawApplicantByManager(ctx, in.ApplicantID)
	default:
		return s.finish(ctx, r, failed(errors.ErrCodeInvalidInput, "unknown withdrawal origin %q", in.By))
	}

	if !res.Ok() {
		if res.Err() == leasing.FetchNotFound {
			return s.finish(ctx, r, failed(errors.ErrCodeApplicantNotFound, "Applicant %d not found", in.ApplicantID))
		}
		return s.finish(ctx, r, failed(errors.ErrCodeUnknown, "Could not withdraw applicant %d", in.ApplicantID))
	}

	return s.finish(ctx, r, successful(http.StatusOK, map[string]interface{}{"applicantId": in.ApplicantID},
		"Applicant "+strconv.Itoa(in.ApplicantID)+" withdrawn"))
}
