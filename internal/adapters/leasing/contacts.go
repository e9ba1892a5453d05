package leasing

import (
	"context"
	"fmt"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

func (c *Client) GetContact(ctx context.Context, contactCode string) result.Result[domain.Contact, FetchError] {
	return fetch[domain.Contact](ctx, c, "getContact", "/contacts/"+url.PathEscape(contactCode))
}

// GetLeasesForPnr returns the contact's current and upcoming leases. An
// unknown person has no leases.
func (c *Client) GetLeasesForPnr(ctx context.Context, pnr string) result.Result[[]domain.Lease, FetchError] {
	res := fetch[[]domain.Lease](ctx, c, "getLeasesForPnr", "/leases/for/pnr/"+url.PathEscape(pnr)+"?includeUpcomingLeases=true")
	if !res.Ok() && res.Err() == FetchNotFound {
		return result.Ok[[]domain.Lease, FetchError](nil)
	}
	return res
}

// GetInternalCreditInformation reports whether the contact has no
// outstanding debt with the housing company.
func (c *Client) GetInternalCreditInformation(ctx context.Context, contactCode string) result.Result[bool, FetchError] {
	resp, err := c.http.Get(ctx, fmt.Sprintf("/contacts/%s/internal-credit", url.PathEscape(contactCode)))
	if err != nil {
		return result.ErrWithCause[bool](FetchUnknown, err)
	}
	if !resp.OK() {
		return decodeFetch[bool](c, "getInternalCreditInformation", resp, nil)
	}

	approved := resp.Get("content.hasNoDebt")
	if !approved.Exists() {
		approved = resp.Get("content")
	}
	return result.Ok[bool, FetchError](approved.Bool())
}
