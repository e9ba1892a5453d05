package parkingspaces

import (
	"cmp"
	"context"
	stderrors "errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"parkingspace-workers/internal/adapters/communication"
	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/domain"
)

const processCreateOffer = "create-offer"

// CreateOffer selects the best eligible applicant on an expired listing and
// issues an offer to them.
func (s *Service) CreateOffer(ctx context.Context, listingID int) domain.ProcessResult {
	ctx, r := s.start(ctx, processCreateOffer, strconv.Itoa(listingID), map[string]interface{}{
		"listingId": listingID,
	})
	return s.finish(ctx, r, s.createOffer(ctx, r, listingID))
}

func (s *Service) createOffer(ctx context.Context, r *run, listingID int) domain.ProcessResult {
	listingRes := s.leasing.GetListingByListingID(ctx, listingID)
	if !listingRes.Ok() {
		if listingRes.Err() == leasing.FetchNotFound {
			return failed(errors.ErrCodeNoListing, "Listing %d not found", listingID)
		}
		return failed(errors.ErrCodeUnknown, "Could not retrieve listing %d", listingID)
	}
	listing := listingRes.Data()
	if listing.Status != domain.ListingStatusExpired {
		return failed(errors.ErrCodeListingNotExpired, "Listing %d is %s, not expired", listingID, listing.Status)
	}

	if s.guard != nil {
		release, acquired, err := s.guard.Acquire(ctx, listingID)
		switch {
		case err != nil:
			r.logger.Warn("offer guard unavailable, continuing without it", map[string]interface{}{"error": err})
		case !acquired:
			return inProgress(errors.ErrCodeOfferInProgress, "Offer for listing %d is already being created", listingID)
		default:
			defer release()
		}
	}

	active := s.leasing.GetActiveOfferByListingID(ctx, listingID)
	if active.Ok() {
		return failed(errors.ErrCodeListingHasActiveOffer, "Listing %d already has active offer %d", listingID, active.Data().ID)
	}
	if active.Err() != leasing.FetchNotFound {
		return failed(errors.ErrCodeUnknown, "Could not check active offers for listing %d", listingID)
	}

	applicantsRes := s.leasing.GetDetailedApplicantsByListingID(ctx, listingID)
	if !applicantsRes.Ok() {
		return failed(errors.ErrCodeUnknown, "Could not retrieve applicants for listing %d", listingID)
	}
	candidates := make([]domain.Applicant, 0, len(applicantsRes.Data()))
	for _, a := range applicantsRes.Data() {
		if a.Status == domain.ApplicantStatusActive {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return failed(errors.ErrCodeNoApplicants, "Listing %d has no active applicants", listingID)
	}

	eligible := s.eligibleApplicants(ctx, r, listing, candidates)
	if len(eligible) == 0 {
		return failed(errors.ErrCodeNoApplicants, "Listing %d has no eligible applicants", listingID)
	}

	ranked := RankApplicants(eligible)
	first := s.firstWithoutActiveOffer(ctx, r, listingID, ranked)
	if first < 0 {
		return failed(errors.ErrCodeNoApplicants, "Every eligible applicant on listing %d already holds an active offer", listingID)
	}
	selected := ranked[first:]
	winner := selected[0]
	r.logger.Info("applicant selected", map[string]interface{}{
		"applicantId": winner.ID,
		"contactCode": winner.ContactCode,
		"candidates":  len(selected),
	})

	contactRes := s.leasing.GetContact(ctx, winner.ContactCode)
	if !contactRes.Ok() {
		if contactRes.Err() == leasing.FetchNotFound {
			return failedWithStatus(errors.ErrCodeGetContact, http.StatusNotFound, "Contact %s not found", winner.ContactCode)
		}
		return failed(errors.ErrCodeGetContact, "Could not retrieve contact %s", winner.ContactCode)
	}
	contact := contactRes.Data()

	if res := s.leasing.UpdateApplicantStatus(ctx, winner.ID, domain.ApplicantStatusOffered); !res.Ok() {
		return failed(errors.ErrCodeUpdateApplicantStatus, "Could not update status of applicant %d", winner.ID)
	}

	expiresAt := s.now().Add(s.config.OfferTTL)
	var sentAt *time.Time
	err := s.notifier.SendParkingSpaceOfferEmail(ctx, communication.OfferEmail{
		To:               contact.EmailAddress,
		FirstName:        contact.FirstName,
		RentalObjectCode: listing.RentalObjectCode,
		Address:          listing.Address,
		DistrictCaption:  listing.DistrictCaption,
		MonthlyRent:      listing.MonthlyRent,
		ApplicationType:  winner.ApplicationType,
		ExpiresAt:        expiresAt,
	})
	switch {
	case stderrors.Is(err, communication.ErrEmailDisabled):
		r.logger.Debug("offer email not sent, email disabled", map[string]interface{}{"contactCode": contact.ContactCode})
	case err != nil:
		r.logger.Warn("offer email not sent", map[string]interface{}{"error": err, "contactCode": contact.ContactCode})
	default:
		now := s.now()
		sentAt = &now
	}

	offerRes := s.leasing.CreateOffer(ctx, domain.NewOffer{
		ListingID:          listingID,
		ApplicantID:        winner.ID,
		SelectedApplicants: selected,
		Status:             domain.OfferStatusActive,
		ExpiresAt:          expiresAt,
		SentAt:             sentAt,
	})
	if !offerRes.Ok() {
		return failed(errors.ErrCodeCreateOffer, "Could not create offer for listing %d", listingID)
	}

	return successful(http.StatusOK, offerRes.Data(), "Offer created for listing "+strconv.Itoa(listingID))
}

// eligibleApplicants re-checks rental rules for every candidate against the
// listing. Rejected candidates are marked Ineligible; candidates whose check
// failed for unknown reasons are skipped without a status change.
func (s *Service) eligibleApplicants(ctx context.Context, r *run, listing domain.Listing, candidates []domain.Applicant) []domain.Applicant {
	propertyTarget := RentalObjectTarget(listing.RentalObjectCode)
	districtTarget := DistrictTarget(listing.DistrictCode)

	eligible := make([]domain.Applicant, 0, len(candidates))
	for _, a := range candidates {
		property := s.eligibility.Validate(ctx, a.ContactCode, propertyTarget, a.ApplicationType)
		district := property
		if property.Ok() && listing.DistrictCode != "" {
			district = s.eligibility.Validate(ctx, a.ContactCode, districtTarget, a.ApplicationType)
		}
		res := CombineEligibility(property, district)
		if res.Ok() {
			eligible = append(eligible, a)
			continue
		}

		rejectedBy := propertyTarget
		if property.Ok() {
			rejectedBy = districtTarget
		}
		fields := map[string]interface{}{
			"applicantId": a.ID,
			"contactCode": a.ContactCode,
			"target":      rejectedBy.String(),
			"reason":      string(res.Err()),
		}
		if res.Err() == EligibilityUnknown {
			r.logger.Warn("applicant skipped, rental rules unavailable", fields)
			continue
		}
		r.logger.Info("applicant no longer eligible", fields)
		if upd := s.leasing.UpdateApplicantStatus(ctx, a.ID, domain.ApplicantStatusIneligible); !upd.Ok() {
			r.logger.Warn("could not mark applicant ineligible", fields)
		}
	}
	return eligible
}

// firstWithoutActiveOffer returns the index of the best ranked applicant who
// holds no Active offer on another listing, or -1. Applicants whose offers
// cannot be read are passed over.
func (s *Service) firstWithoutActiveOffer(ctx context.Context, r *run, listingID int, ranked []domain.Applicant) int {
	for i, a := range ranked {
		offersRes := s.leasing.GetOffersForContact(ctx, a.ContactCode)
		if !offersRes.Ok() && offersRes.Err() != leasing.FetchNotFound {
			r.logger.Warn("applicant skipped, offers unavailable", map[string]interface{}{
				"applicantId": a.ID,
				"contactCode": a.ContactCode,
			})
			continue
		}

		held := slices.IndexFunc(offersRes.Data(), func(o domain.Offer) bool {
			return o.Status == domain.OfferStatusActive && o.ListingID != listingID
		})
		if held < 0 {
			return i
		}
		r.logger.Info("applicant skipped, active offer on another listing", map[string]interface{}{
			"applicantId":   a.ID,
			"contactCode":   a.ContactCode,
			"heldOfferId":   offersRes.Data()[held].ID,
			"heldListingId": offersRes.Data()[held].ListingID,
		})
	}
	return -1
}

// RankApplicants orders applicants best first: priority ascending, then
// queue time, then application date, then id. Missing priority or queue
// time sorts last. The input is not modified.
func RankApplicants(applicants []domain.Applicant) []domain.Applicant {
	ranked := slices.Clone(applicants)
	slices.SortStableFunc(ranked, compareApplicants)
	return ranked
}

func compareApplicants(a, b domain.Applicant) int {
	if c := compareNilLast(a.Priority, b.Priority, cmp.Compare[int]); c != 0 {
		return c
	}
	if c := compareNilLast(a.QueueTime, b.QueueTime, time.Time.Compare); c != 0 {
		return c
	}
	if c := a.ApplicationDate.Compare(b.ApplicationDate); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func compareNilLast[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return compare(*a, *b)
}
