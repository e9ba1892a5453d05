package parkingspaces

import (
	"context"
	"errors"
	"fmt"

	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/domain"
)

var ErrListingUnavailable = errors.New("LISTING_UNAVAILABLE")

type ListingRegistrar struct {
	store  ListingStore
	logger logger.Logger
}

func NewListingRegistrar(store ListingStore, log logger.Logger) *ListingRegistrar {
	return &ListingRegistrar{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "listingRegistrar"}),
	}
}

// EnsureListing returns the active internal listing for the published space,
// creating it on first use. Losing a creation race re-reads the winner.
func (r *ListingRegistrar) EnsureListing(ctx context.Context, space domain.PublishedParkingSpace) (*domain.Listing, error) {
	existing := r.store.GetActiveListingByRentalObjectCode(ctx, space.RentalObjectCode)
	if existing.Ok() {
		listing := existing.Data()
		return &listing, nil
	}
	if existing.Err() != leasing.FetchNotFound {
		return nil, fmt.Errorf("%w: get active listing %s: %s", ErrListingUnavailable, space.RentalObjectCode, existing)
	}

	created := r.store.CreateNewListing(ctx, space.ToNewListing())
	if created.Ok() {
		listing := created.Data()
		r.logger.Info("listing created", map[string]interface{}{
			"listingId":        listing.ID,
			"rentalObjectCode": space.RentalObjectCode,
		})
		return &listing, nil
	}
	if created.Err() != leasing.CreateConflict {
		return nil, fmt.Errorf("%w: create listing %s: %s", ErrListingUnavailable, space.RentalObjectCode, created)
	}

	refetched := r.store.GetActiveListingByRentalObjectCode(ctx, space.RentalObjectCode)
	if !refetched.Ok() {
		return nil, fmt.Errorf("%w: refetch listing %s after conflict: %s", ErrListingUnavailable, space.RentalObjectCode, refetched)
	}
	listing := refetched.Data()
	return &listing, nil
}
