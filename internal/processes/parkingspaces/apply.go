package parkingspaces

import (
	"context"
	"net/http"
	"strings"

	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

const processApply = "apply-for-parking-space"

type ApplyInput struct {
	ParkingSpaceID  string `json:"parkingSpaceId"`
	ContactCode     string `json:"contactCode"`
	ApplicationType string `json:"applicationType"`
}

// ApplyForParkingSpace registers a note of interest from contactCode on an
// internal parking space. Resubmitting while the application is Active
// succeeds without side effects on the applicant record.
func (s *Service) ApplyForParkingSpace(ctx context.Context, in ApplyInput) domain.ProcessResult {
	ctx, r := s.start(ctx, processApply, in.ParkingSpaceID, map[string]interface{}{
		"parkingSpaceId": in.ParkingSpaceID,
		"contactCode":    in.ContactCode,
	})
	return s.finish(ctx, r, s.apply(ctx, r, in))
}

func (s *Service) apply(ctx context.Context, r *run, in ApplyInput) domain.ProcessResult {
	code := strings.TrimSpace(in.ParkingSpaceID)
	contactCode := strings.TrimSpace(in.ContactCode)
	if code == "" || contactCode == "" {
		return failed(errors.ErrCodeInvalidInput, "parkingSpaceId and contactCode are required")
	}
	appType, err := domain.ParseApplicationType(in.ApplicationType)
	if err != nil {
		return failed(errors.ErrCodeInvalidInput, "%v", err)
	}

	spaceRes := s.lookup.GetPublishedParkingSpace(ctx, code)
	if !spaceRes.Ok() {
		if spaceRes.Err() == published.LookupNotFound {
			return failed(errors.ErrCodeParkingSpaceNotFound, "Parking space %s not found", code)
		}
		return failed(errors.ErrCodeUnknown, "Could not retrieve parking space %s", code)
	}
	space := spaceRes.Data()
	if !space.IsInternal() {
		return failed(errors.ErrCodeParkingSpaceNotInternal, "Parking space %s is not internal", code)
	}

	contactRes := s.leasing.GetContact(ctx, contactCode)
	if !contactRes.Ok() {
		if contactRes.Err() == leasing.FetchNotFound {
			return failed(errors.ErrCodeApplicantNotFound, "Applicant %s not found", contactCode)
		}
		return failed(errors.ErrCodeUnknown, "Could not retrieve applicant %s", contactCode)
	}
	contact := contactRes.Data()

	leases := s.leasing.GetLeasesForPnr(ctx, contact.NationalRegistrationNumber)
	if !leases.Ok() {
		return failed(errors.ErrCodeUnknown, "Could not retrieve leases for applicant %s", contactCode)
	}
	if len(leases.Data()) == 0 {
		return failed(errors.ErrCodeApplicantNotTenant, "Applicant %s is not a tenant", contactCode)
	}

	property := s.eligibility.Validate(ctx, contactCode, RentalObjectTarget(space.RentalObjectCode), appType)
	district := result.Ok[Eligibility, EligibilityError](Eligibility{ApplicationType: appType})
	if space.DistrictCode != "" {
		district = s.eligibility.Validate(ctx, contactCode, DistrictTarget(space.DistrictCode), appType)
	}
	eligible := CombineEligibility(property, district)
	if !eligible.Ok() {
		return eligibilityFailure(eligible.Err(), contactCode, space.RentalObjectCode)
	}

	credit := s.leasing.GetInternalCreditInformation(ctx, contactCode)
	if !credit.Ok() {
		return failed(errors.ErrCodeUnknown, "Could not check credit information for applicant %s", contactCode)
	}
	if !credit.Data() {
		return failed(errors.ErrCodeApplicationRejected, "Application for %s rejected by internal credit check", contactCode)
	}

	if err := s.waitingList.EnsureEnrolled(ctx, contactCode, contact.NationalRegistrationNumber); err != nil {
		r.logger.Error("waiting list enrolment failed", map[string]interface{}{"error": err})
		return failed(errors.ErrCodeUnknown, "Could not enrol applicant %s in waiting list", contactCode)
	}

	listing, err := s.listings.EnsureListing(ctx, space)
	if err != nil {
		r.logger.Error("listing registration failed", map[string]interface{}{"error": err})
		return failed(errors.ErrCodeUnknown, "Could not register listing for parking space %s", code)
	}

	if res, done := s.checkExistingApplicant(ctx, contactCode, listing); done {
		return res
	}

	created := s.leasing.ApplyForListing(ctx, domain.NewApplicant{
		Name:                       contact.FullName,
		ContactCode:                contactCode,
		NationalRegistrationNumber: contact.NationalRegistrationNumber,
		ListingID:                  listing.ID,
		ApplicationType:            eligible.Data().ApplicationType,
		Status:                     domain.ApplicantStatusActive,
		ApplicationDate:            s.now(),
	})
	if !created.Ok() {
		if created.Err() == leasing.CreateConflict {
			if res, done := s.checkExistingApplicant(ctx, contactCode, listing); done {
				return res
			}
		}
		return failed(errors.ErrCodeUnknown, "Could not create application for %s on listing %d", contactCode, listing.ID)
	}

	return successful(http.StatusOK, created.Data(),
		"Applicant "+contactCode+" successfully applied to parking space "+space.RentalObjectCode)
}

// checkExistingApplicant reads the applicant record for (contact, listing) at
// call time. done is false when a new application may be created.
func (s *Service) checkExistingApplicant(ctx context.Context, contactCode string, listing *domain.Listing) (domain.ProcessResult, bool) {
	existing := s.leasing.GetApplicantByContactCodeAndListingID(ctx, contactCode, listing.ID)
	if !existing.Ok() {
		if existing.Err() == leasing.FetchNotFound {
			return domain.ProcessResult{}, false
		}
		return failed(errors.ErrCodeUnknown, "Could not check existing application for %s", contactCode), true
	}

	applicant := existing.Data()
	switch {
	case applicant.Status == domain.ApplicantStatusActive:
		return successful(http.StatusOK, applicant,
			"Applicant "+contactCode+" already has application for "+listing.RentalObjectCode), true
	case applicant.Status.IsWithdrawn():
		return domain.ProcessResult{}, false
	}
	return failed(errors.ErrCodeApplicantAlreadyExists,
		"Applicant %s already has an application for listing %d with status %s", contactCode, listing.ID, applicant.Status), true
}

func eligibilityFailure(e EligibilityError, contactCode, rentalObjectCode string) domain.ProcessResult {
	switch e {
	case EligibilityNotAllowedToRentAdditional:
		return failed(errors.ErrCodeNotAllowedToRentAdditional, "Applicant %s is not allowed to rent an additional parking space", contactCode)
	case EligibilityNoContractInTheArea:
		return failed(errors.ErrCodeNoContractInTheArea, "Applicant %s has no housing contract in the area of %s", contactCode, rentalObjectCode)
	case EligibilityNotFound:
		return failed(errors.ErrCodeNotFound, "Rental rules for %s not found", rentalObjectCode)
	case EligibilityNotAParkingSpace:
		return failed(errors.ErrCodeNotAParkingSpace, "%s is not a parking space", rentalObjectCode)
	}
	return failed(errors.ErrCodeUnknown, "Could not validate rental rules for %s", contactCode)
}
