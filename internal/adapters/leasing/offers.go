package leasing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

func (c *Client) CreateOffer(ctx context.Context, offer domain.NewOffer) result.Result[domain.Offer, CreateError] {
	return create[domain.Offer](ctx, c, "createOffer", "/offers", offer)
}

func (c *Client) GetOfferByOfferID(ctx context.Context, offerID int) result.Result[domain.Offer, FetchError] {
	return fetch[domain.Offer](ctx, c, "getOfferByOfferId", fmt.Sprintf("/offers/%d", offerID))
}

func (c *Client) GetOffersForContact(ctx context.Context, contactCode string) result.Result[[]domain.Offer, FetchError] {
	return fetch[[]domain.Offer](ctx, c, "getOffersForContact", "/contacts/"+url.PathEscape(contactCode)+"/offers")
}

func (c *Client) GetActiveOfferByListingID(ctx context.Context, listingID int) result.Result[domain.Offer, FetchError] {
	return fetch[domain.Offer](ctx, c, "getActiveOfferByListingId", fmt.Sprintf("/listings/%d/offers/active", listingID))
}

func (c *Client) CloseOfferByAccept(ctx context.Context, offerID int) result.Result[Empty, FetchError] {
	return update(ctx, c, "closeOfferByAccept", http.MethodPut, fmt.Sprintf("/offers/%d/close-by-accept", offerID), nil)
}

func (c *Client) CloseOfferByDeny(ctx context.Context, offerID int) result.Result[Empty, FetchError] {
	return update(ctx, c, "closeOfferByDeny", http.MethodPut, fmt.Sprintf("/offers/%d/close-by-deny", offerID), nil)
}

func (c *Client) CloseOfferByExpire(ctx context.Context, offerID int) result.Result[Empty, FetchError] {
	return update(ctx, c, "closeOfferByExpire", http.MethodPut, fmt.Sprintf("/offers/%d/close-by-expire", offerID), nil)
}

// HandleExpiredOffers expires overdue offers upstream and returns the ids of
// listings that need a new offer.
func (c *Client) HandleExpiredOffers(ctx context.Context) result.Result[[]int, FetchError] {
	resp, err := c.http.Post(ctx, "/offers/handle-expired", nil)
	return decodeFetch[[]int](c, "handleExpiredOffers", resp, err)
}
