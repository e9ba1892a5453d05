package leasing

import (
	"context"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

func (c *Client) GetWaitingList(ctx context.Context, pnr string) result.Result[[]domain.WaitingList, FetchError] {
	return fetch[[]domain.WaitingList](ctx, c, "getWaitingList", "/contacts/"+url.PathEscape(pnr)+"/waitingLists")
}

type addToWaitingListRequest struct {
	ContactCode     string `json:"contactCode"`
	WaitingListType string `json:"waitingListType"`
}

func (c *Client) AddApplicantToWaitingList(ctx context.Context, pnr, contactCode, waitingListType string) result.Result[Empty, CreateError] {
	return create[Empty](ctx, c, "addApplicantToWaitingList", "/contacts/"+url.PathEscape(pnr)+"/waitingLists", addToWaitingListRequest{
		ContactCode:     contactCode,
		WaitingListType: waitingListType,
	})
}
