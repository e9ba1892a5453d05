package parkingspaces

import (
	"context"
	"net/http"
	"strconv"

	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/metrics"
	"parkingspace-workers/internal/domain"

	"github.com/sourcegraph/conc/pool"
)

const (
	processAcceptOffer = "accept-offer"
	processDenyOffer   = "deny-offer"
	processExpireOffer = "expire-offer"
)

// AcceptResult reports the sibling offers closed as a consequence of an accept.
type AcceptResult struct {
	OfferID       int   `json:"offerId"`
	DeniedOffers  []int `json:"deniedOffers"`
	FailedDenials []int `json:"failedDenials"`
}

// offerContext is an offer together with the listing it was resolved against.
type offerContext struct {
	offer            domain.Offer
	rentalObjectCode string
	districtCode     string
}

// resolveOffer loads the offer and its published parking space. byListingID
// resolves through the internal listing instead of the rental object code.
func (s *Service) resolveOffer(ctx context.Context, offerID int, byListingID bool) (offerContext, *domain.ProcessResult) {
	offerRes := s.leasing.GetOfferByOfferID(ctx, offerID)
	if !offerRes.Ok() {
		res := failed(errors.ErrCodeUnknown, "Could not retrieve offer %d", offerID)
		if offerRes.Err() == leasing.FetchNotFound {
			res = failed(errors.ErrCodeNoOffer, "Offer %d not found", offerID)
		}
		return offerContext{}, &res
	}
	offer := offerRes.Data()

	code := offer.RentalObjectCode
	if byListingID || code == "" {
		listing := s.leasing.GetListingByListingID(ctx, offer.ListingID)
		if !listing.Ok() {
			res := failed(errors.ErrCodeUnknown, "Could not retrieve listing %d for offer %d", offer.ListingID, offerID)
			if listing.Err() == leasing.FetchNotFound {
				res = failed(errors.ErrCodeNoListing, "Listing %d for offer %d not found", offer.ListingID, offerID)
			}
			return offerContext{}, &res
		}
		if byListingID {
			if listing.Data().DistrictCode == "" {
				res := failed(errors.ErrCodeNoListing, "Listing %d has no district", offer.ListingID)
				return offerContext{}, &res
			}
			return offerContext{
				offer:            offer,
				rentalObjectCode: listing.Data().RentalObjectCode,
				districtCode:     listing.Data().DistrictCode,
			}, nil
		}
		code = listing.Data().RentalObjectCode
	}

	space := s.lookup.GetPublishedParkingSpace(ctx, code)
	if !space.Ok() {
		res := failed(errors.ErrCodeNoListing, "Parking space %s for offer %d not found", code, offerID)
		if space.Err() != published.LookupNotFound {
			res = failed(errors.ErrCodeUnknown, "Could not retrieve parking space %s", code)
		}
		return offerContext{}, &res
	}
	if space.Data().DistrictCode == "" {
		res := failed(errors.ErrCodeNoListing, "Parking space %s has no district", code)
		return offerContext{}, &res
	}
	return offerContext{offer: offer, rentalObjectCode: code, districtCode: space.Data().DistrictCode}, nil
}

// AcceptOffer closes the offer as accepted and denies every other Active
// offer held by the same contact. Sibling denials that fail are logged and
// counted; they never fail the accept.
func (s *Service) AcceptOffer(ctx context.Context, offerID int) domain.ProcessResult {
	ctx, r := s.start(ctx, processAcceptOffer, strconv.Itoa(offerID), map[string]interface{}{"offerId": offerID})
	return s.finish(ctx, r, s.acceptOffer(ctx, r, offerID))
}

func (s *Service) acceptOffer(ctx context.Context, r *run, offerID int) domain.ProcessResult {
	oc, fail := s.resolveOffer(ctx, offerID, false)
	if fail != nil {
		return *fail
	}
	offer := oc.offer

	if res := s.leasing.CloseOfferByAccept(ctx, offerID); !res.Ok() {
		return failed(errors.ErrCodeCloseOffer, "Could not close offer %d", offerID)
	}

	contactCode := offer.OfferedApplicant.ContactCode
	contactRes := s.leasing.GetContact(ctx, contactCode)
	if !contactRes.Ok() {
		if contactRes.Err() == leasing.FetchNotFound {
			return failed(errors.ErrCodeNoContact, "Contact %s not found", contactCode)
		}
		return failedWithStatus(errors.ErrCodeNoContact, http.StatusInternalServerError, "Could not retrieve contact %s", contactCode)
	}
	contact := contactRes.Data()

	if res := s.leasing.UpdateApplicantStatus(ctx, offer.OfferedApplicant.ID, domain.ApplicantStatusOfferAccepted); !res.Ok() {
		r.logger.Warn("could not mark applicant as accepted", map[string]interface{}{"applicantId": offer.OfferedApplicant.ID})
	}

	othersRes := s.leasing.GetOffersForContact(ctx, contactCode)
	var others []domain.Offer
	switch {
	case othersRes.Ok():
		others = othersRes.Data()
	case othersRes.Err() == leasing.FetchNotFound:
	default:
		return failed(errors.ErrCodeGetOtherOffers, "Could not retrieve other offers for %s", contactCode)
	}

	siblings := make([]int, 0, len(others))
	for _, o := range others {
		if o.Status == domain.OfferStatusActive && o.ID != offerID {
			siblings = append(siblings, o.ID)
		}
	}
	denied, failedDenials := s.denySiblings(ctx, r, siblings)

	if res := s.leasing.UpdateListingStatus(ctx, offer.ListingID, domain.ListingStatusAssigned); !res.Ok() {
		r.logger.Warn("could not mark listing as assigned", map[string]interface{}{"listingId": offer.ListingID})
	}

	if err := s.notifier.SendNotificationToContact(ctx, contact,
		"Bilplats "+oc.rentalObjectCode,
		"Tack! Du har tackat ja till bilplatsen "+oc.rentalObjectCode+"."); err != nil {
		r.logger.Warn("acceptance notification not sent", map[string]interface{}{"error": err})
	}

	return successful(http.StatusAccepted, AcceptResult{
		OfferID:       offerID,
		DeniedOffers:  denied,
		FailedDenials: failedDenials,
	}, "Offer "+strconv.Itoa(offerID)+" accepted")
}

type denial struct {
	offerID int
	result  domain.ProcessResult
}

func (s *Service) denySiblings(ctx context.Context, r *run, offerIDs []int) (denied, failedDenials []int) {
	denied = []int{}
	failedDenials = []int{}
	if len(offerIDs) == 0 {
		return denied, failedDenials
	}

	p := pool.NewWithResults[denial]().WithMaxGoroutines(s.config.SiblingDenialConcurrency)
	for _, id := range offerIDs {
		p.Go(func() denial {
			return denial{offerID: id, result: s.DenyOffer(ctx, id)}
		})
	}

	for _, d := range p.Wait() {
		if d.result.Succeeded() {
			denied = append(denied, d.offerID)
			continue
		}
		failedDenials = append(failedDenials, d.offerID)
		metrics.SiblingDenialsFailed.Inc()
		r.logger.Error("sibling offer denial failed", map[string]interface{}{
			"siblingOfferId": d.offerID,
			"error":          d.result.Error,
		})
	}
	return denied, failedDenials
}

// DenyOffer closes the offer as declined and offers the listing to the next
// applicant in line.
func (s *Service) DenyOffer(ctx context.Context, offerID int) domain.ProcessResult {
	ctx, r := s.start(ctx, processDenyOffer, strconv.Itoa(offerID), map[string]interface{}{"offerId": offerID})
	return s.finish(ctx, r, s.closeAndReissue(ctx, r, offerID, false))
}

// ExpireOffer closes an unanswered offer past its deadline and re-issues the
// listing.
func (s *Service) ExpireOffer(ctx context.Context, offerID int) domain.ProcessResult {
	ctx, r := s.start(ctx, processExpireOffer, strconv.Itoa(offerID), map[string]interface{}{"offerId": offerID})
	return s.finish(ctx, r, s.closeAndReissue(ctx, r, offerID, true))
}

func (s *Service) closeAndReissue(ctx context.Context, r *run, offerID int, expire bool) domain.ProcessResult {
	oc, fail := s.resolveOffer(ctx, offerID, expire)
	if fail != nil {
		return *fail
	}
	offer := oc.offer

	closeOffer := s.leasing.CloseOfferByDeny
	applicantStatus := domain.ApplicantStatusOfferDeclined
	status := http.StatusAccepted
	verb := "denied"
	if expire {
		closeOffer = s.leasing.CloseOfferByExpire
		applicantStatus = domain.ApplicantStatusOfferExpired
		status = http.StatusOK
		verb = "expired"
	}

	if res := closeOffer(ctx, offerID); !res.Ok() {
		return failed(errors.ErrCodeCloseOffer, "Could not close offer %d", offerID)
	}

	statusUpdated := s.leasing.UpdateApplicantStatus(ctx, offer.OfferedApplicant.ID, applicantStatus).Ok()
	if !statusUpdated {
		r.logger.Warn("could not update applicant status, listing not re-offered", map[string]interface{}{
			"applicantId": offer.OfferedApplicant.ID,
			"status":      applicantStatus,
		})
	}

	if !expire {
		s.notifyDeclined(ctx, r, offer.OfferedApplicant.ContactCode, oc.rentalObjectCode)
	}

	reissued := false
	if statusUpdated {
		res := s.CreateOffer(ctx, offer.ListingID)
		reissued = res.Succeeded()
		r.logger.Info("listing re-offered", map[string]interface{}{
			"listingId":     offer.ListingID,
			"processStatus": res.ProcessStatus,
			"error":         res.Error,
		})
	}

	return successful(status, map[string]interface{}{
		"offerId":   offerID,
		"listingId": offer.ListingID,
		"reissued":  reissued,
	}, "Offer "+strconv.Itoa(offerID)+" "+verb)
}

func (s *Service) notifyDeclined(ctx context.Context, r *run, contactCode, rentalObjectCode string) {
	contact := s.leasing.GetContact(ctx, contactCode)
	if !contact.Ok() {
		r.logger.Warn("declined notification skipped, contact unavailable", map[string]interface{}{"contactCode": contactCode})
		return
	}
	if err := s.notifier.SendNotificationToContact(ctx, contact.Data(),
		"Bilplats "+rentalObjectCode,
		"Du har tackat nej till bilplatsen "+rentalObjectCode+"."); err != nil {
		r.logger.Warn("declined notification not sent", map[string]interface{}{"error": err})
	}
}
