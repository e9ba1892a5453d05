package parkingspaces

import (
	"context"

	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

type EligibilityError string

const (
	EligibilityNotFound                   EligibilityError = "not-found"
	EligibilityNotAParkingSpace           EligibilityError = "not-a-parking-space"
	EligibilityNoContractInTheArea        EligibilityError = "no-contract-in-the-area"
	EligibilityNotAllowedToRentAdditional EligibilityError = "not-allowed-to-rent-additional"
	EligibilityUnknown                    EligibilityError = "unknown"
)

type targetKind int

const (
	targetDistrict targetKind = iota
	targetRentalObject
)

// Target is what a contact's rental rights are checked against: a residential
// district or a single rental object.
type Target struct {
	kind targetKind
	code string
}

func DistrictTarget(districtCode string) Target {
	return Target{kind: targetDistrict, code: districtCode}
}

func RentalObjectTarget(rentalObjectCode string) Target {
	return Target{kind: targetRentalObject, code: rentalObjectCode}
}

func (t Target) Code() string { return t.code }

func (t Target) String() string {
	if t.kind == targetDistrict {
		return "district:" + t.code
	}
	return "rentalObject:" + t.code
}

type Eligibility struct {
	Reason          string                 `json:"reason"`
	ApplicationType domain.ApplicationType `json:"applicationType"`
}

type EligibilityValidator struct {
	rules RentalRuleChecker
}

func NewEligibilityValidator(rules RentalRuleChecker) *EligibilityValidator {
	return &EligibilityValidator{rules: rules}
}

// Validate checks whether contactCode may rent target with the requested
// application type.
func (v *EligibilityValidator) Validate(ctx context.Context, contactCode string, target Target, requested domain.ApplicationType) result.Result[Eligibility, EligibilityError] {
	var res result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError]
	switch target.kind {
	case targetDistrict:
		res = v.rules.ValidateResidentialAreaRentalRules(ctx, contactCode, target.code)
	default:
		res = v.rules.ValidatePropertyRentalRules(ctx, contactCode, target.code)
	}

	checked := result.MapErr(res, mapRentalRuleError)
	entitled, ok := checked.Unwrap()
	if !ok {
		return result.ErrWithCause[Eligibility](checked.Err(), checked.Cause())
	}

	if !Allows(entitled.ApplicationType, requested) {
		return result.Err[Eligibility](EligibilityNotAllowedToRentAdditional)
	}
	return result.Ok[Eligibility, EligibilityError](Eligibility{
		Reason:          entitled.Reason,
		ApplicationType: requested,
	})
}

// Allows applies the entitlement rule: Additional rights cover both
// application types, Replace rights cover only Replace.
func Allows(entitled, requested domain.ApplicationType) bool {
	switch entitled {
	case domain.ApplicationTypeAdditional:
		return requested == domain.ApplicationTypeAdditional || requested == domain.ApplicationTypeReplace
	case domain.ApplicationTypeReplace:
		return requested == domain.ApplicationTypeReplace
	}
	return false
}

// CombineEligibility returns the first failure, property before district.
func CombineEligibility(property, district result.Result[Eligibility, EligibilityError]) result.Result[Eligibility, EligibilityError] {
	if !property.Ok() {
		return property
	}
	if !district.Ok() {
		return district
	}
	return property
}

func mapRentalRuleError(e leasing.RentalRuleError) EligibilityError {
	switch e {
	case leasing.RentalRuleNotFound:
		return EligibilityNotFound
	case leasing.RentalRuleNotAParkingSpace:
		return EligibilityNotAParkingSpace
	case leasing.RentalRuleNotTenantInTheProperty, leasing.RentalRuleNoHousingContractInTheArea:
		return EligibilityNoContractInTheArea
	}
	return EligibilityUnknown
}
