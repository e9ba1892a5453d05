package leasing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

func (c *Client) ApplyForListing(ctx context.Context, applicant domain.NewApplicant) result.Result[domain.Applicant, CreateError] {
	return create[domain.Applicant](ctx, c, "applyForListing", "/listings/apply", applicant)
}

func (c *Client) GetApplicantByContactCodeAndListingID(ctx context.Context, contactCode string, listingID int) result.Result[domain.Applicant, FetchError] {
	return fetch[domain.Applicant](ctx, c, "getApplicantByContactCodeAndListingId",
		fmt.Sprintf("/applicants/%s/%d", url.PathEscape(contactCode), listingID))
}

// GetDetailedApplicantsByListingID returns applicants with queue time and
// priority resolved.
func (c *Client) GetDetailedApplicantsByListingID(ctx context.Context, listingID int) result.Result[[]domain.Applicant, FetchError] {
	res := fetch[[]domain.Applicant](ctx, c, "getDetailedApplicantsByListingId", fmt.Sprintf("/listings/%d/applicants/details", listingID))
	if !res.Ok() && res.Err() == FetchNotFound {
		return result.Ok[[]domain.Applicant, FetchError](nil)
	}
	return res
}

type updateApplicantStatusRequest struct {
	Status domain.ApplicantStatus `json:"status"`
}

func (c *Client) UpdateApplicantStatus(ctx context.Context, applicantID int, status domain.ApplicantStatus) result.Result[Empty, FetchError] {
	return update(ctx, c, "updateApplicantStatus", http.MethodPatch, fmt.Sprintf("/applicants/%d/status", applicantID), updateApplicantStatusRequest{Status: status})
}

func (c *Client) WithdrawApplicantByUser(ctx context.Context, applicantID int, contactCode string) result.Result[Empty, FetchError] {
	return update(ctx, c, "withdrawApplicantByUser", http.MethodPatch,
		fmt.Sprintf("/applicants/%d/by-user/%s", applicantID, url.PathEscape(contactCode)), nil)
}

func (c *Client) WithdrawApplicantByManager(ctx context.Context, applicantID int) result.Result[Empty, FetchError] {
	return update(ctx, c, "withdrawApplicantByManager", http.MethodPatch, fmt.Sprintf("/applicants/%d/by-manager", applicantID), nil)
}
