package leasing

import (
	"context"
	"net/http"
	"net/url"

	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

// RentalRuleError tags a failed rental rule check.
type RentalRuleError string

const (
	RentalRuleNotFound                   RentalRuleError = "not-found"
	RentalRuleNotAParkingSpace           RentalRuleError = "not-a-parking-space"
	RentalRuleNotTenantInTheProperty     RentalRuleError = "not-tenant-in-the-property"
	RentalRuleNoHousingContractInTheArea RentalRuleError = "no-housing-contract-in-the-area"
	RentalRuleUnknown                    RentalRuleError = "unknown"
)

// RentalRuleValidation carries the highest application type the contact is
// entitled to for the checked target.
type RentalRuleValidation struct {
	Reason          string                 `json:"reason"`
	ApplicationType domain.ApplicationType `json:"applicationType"`
}

func (c *Client) ValidatePropertyRentalRules(ctx context.Context, contactCode, rentalObjectCode string) result.Result[RentalRuleValidation, RentalRuleError] {
	return c.validateRentalRules(ctx, "validatePropertyRentalRules",
		"/applicants/validatePropertyRentalRules/"+url.PathEscape(contactCode)+"/"+url.PathEscape(rentalObjectCode))
}

func (c *Client) ValidateResidentialAreaRentalRules(ctx context.Context, contactCode, districtCode string) result.Result[RentalRuleValidation, RentalRuleError] {
	return c.validateRentalRules(ctx, "validateResidentialAreaRentalRules",
		"/applicants/validateResidentialAreaRentalRules/"+url.PathEscape(contactCode)+"/"+url.PathEscape(districtCode))
}

func (c *Client) validateRentalRules(ctx context.Context, op, path string) result.Result[RentalRuleValidation, RentalRuleError] {
	resp, err := c.http.Get(ctx, path)
	if err != nil {
		c.logger.Error("leasing request failed", map[string]interface{}{"op": op, "error": err})
		return result.ErrWithCause[RentalRuleValidation](RentalRuleUnknown, err)
	}

	if resp.OK() {
		var v RentalRuleValidation
		if err := resp.DecodeContent(&v); err != nil {
			return result.ErrWithCause[RentalRuleValidation](RentalRuleUnknown, err)
		}
		if v.Reason == "" {
			v.Reason = resp.Get("reason").String()
		}
		return result.Ok[RentalRuleValidation, RentalRuleError](v)
	}

	switch tag := RentalRuleError(resp.ErrorTag()); tag {
	case RentalRuleNotFound, RentalRuleNotAParkingSpace, RentalRuleNotTenantInTheProperty, RentalRuleNoHousingContractInTheArea:
		return result.Err[RentalRuleValidation](tag)
	}
	if resp.StatusCode == http.StatusNotFound {
		return result.Err[RentalRuleValidation](RentalRuleNotFound)
	}

	c.logger.Warn("unexpected rental rule response", map[string]interface{}{
		"op":         op,
		"statusCode": resp.StatusCode,
	})
	return result.Err[RentalRuleValidation](RentalRuleUnknown)
}
