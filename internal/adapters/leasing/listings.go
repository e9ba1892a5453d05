package leasing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

func (c *Client) GetListingByListingID(ctx context.Context, listingID int) result.Result[domain.Listing, FetchError] {
	return fetch[domain.Listing](ctx, c, "getListingByListingId", fmt.Sprintf("/listings/by-id/%d", listingID))
}

func (c *Client) GetActiveListingByRentalObjectCode(ctx context.Context, rentalObjectCode string) result.Result[domain.Listing, FetchError] {
	return fetch[domain.Listing](ctx, c, "getActiveListingByRentalObjectCode", "/listings/active/by-code/"+url.PathEscape(rentalObjectCode))
}

func (c *Client) CreateNewListing(ctx context.Context, listing domain.NewListing) result.Result[domain.Listing, CreateError] {
	return create[domain.Listing](ctx, c, "createNewListing", "/listings", listing)
}

type updateListingStatusRequest struct {
	Status domain.ListingStatus `json:"status"`
}

func (c *Client) UpdateListingStatus(ctx context.Context, listingID int, status domain.ListingStatus) result.Result[Empty, FetchError] {
	return update(ctx, c, "updateListingStatus", http.MethodPut, fmt.Sprintf("/listings/%d/status", listingID), updateListingStatusRequest{Status: status})
}

// GetExpiredListingsWithNoOffers lists listings past their publish window
// that have never been offered.
func (c *Client) GetExpiredListingsWithNoOffers(ctx context.Context) result.Result[[]domain.Listing, FetchError] {
	res := fetch[[]domain.Listing](ctx, c, "getExpiredListingsWithNoOffers", "/listings/expired-without-offers")
	if !res.Ok() && res.Err() == FetchNotFound {
		return result.Ok[[]domain.Listing, FetchError](nil)
	}
	return res
}
