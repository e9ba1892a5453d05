package parkingspaces

import (
	"context"
	"errors"
	"fmt"

	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/domain"
)

var ErrWaitingListUnavailable = errors.New("WAITING_LIST_UNAVAILABLE")

type WaitingListRegistrar struct {
	client WaitingListClient
	logger logger.Logger
}

func NewWaitingListRegistrar(client WaitingListClient, log logger.Logger) *WaitingListRegistrar {
	return &WaitingListRegistrar{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "waitingListRegistrar"}),
	}
}

// EnsureEnrolled puts the contact in the parking space queue unless already
// there. A concurrent enrolment reported as conflict counts as enrolled.
func (r *WaitingListRegistrar) EnsureEnrolled(ctx context.Context, contactCode, pnr string) error {
	res := r.client.GetWaitingList(ctx, pnr)
	var lists []domain.WaitingList
	switch {
	case res.Ok():
		lists = res.Data()
	case res.Err() == leasing.FetchNotFound:
	default:
		return fmt.Errorf("%w: get waiting list: %s", ErrWaitingListUnavailable, res)
	}

	for _, wl := range lists {
		if wl.CoversParkingSpace() {
			return nil
		}
	}

	added := r.client.AddApplicantToWaitingList(ctx, pnr, contactCode, domain.WaitingListTypeParkingSpace)
	if !added.Ok() && added.Err() != leasing.CreateConflict {
		return fmt.Errorf("%w: add to waiting list: %s", ErrWaitingListUnavailable, added)
	}

	r.logger.Info("contact enrolled in waiting list", map[string]interface{}{
		"contactCode":     contactCode,
		"waitingListType": domain.WaitingListTypeParkingSpace,
		"alreadyPresent":  !added.Ok(),
	})
	return nil
}
