package parkingspaces

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/domain"

	"golang.org/x/time/rate"
)

const (
	processStartOfferBatches  = "start-offer-batches"
	processHandleExpiredOffer = "handle-expired-offers"
)

type BatchFailure struct {
	ListingID int    `json:"listingId"`
	Error     string `json:"error"`
}

type BatchSummary struct {
	Listings      int            `json:"listings"`
	OffersCreated int            `json:"offersCreated"`
	Failures      []BatchFailure `json:"failures"`
}

// StartOfferBatches expires listings whose publish window has closed and
// issues the first offer on each of them. Listings still inside their
// publish window are left out of the run.
func (s *Service) StartOfferBatches(ctx context.Context) domain.ProcessResult {
	ctx, r := s.start(ctx, processStartOfferBatches, "", nil)

	listingsRes := s.leasing.GetExpiredListingsWithNoOffers(ctx)
	if !listingsRes.Ok() {
		return s.finish(ctx, r, failed(errors.ErrCodeUnknown, "Could not retrieve expired listings"))
	}
	now := s.now()
	listings := make([]domain.Listing, 0, len(listingsRes.Data()))
	for _, l := range listingsRes.Data() {
		if l.Status == domain.ListingStatusActive && !l.PublishWindowElapsed(now) {
			r.logger.Debug("listing still published, skipped", map[string]interface{}{"listingId": l.ID})
			continue
		}
		listings = append(listings, l)
	}

	ids := make([]int, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	summary := s.runBatch(ctx, r, ids, func(i int) string {
		l := listings[i]
		if l.Status == domain.ListingStatusActive {
			if res := s.leasing.UpdateListingStatus(ctx, l.ID, domain.ListingStatusExpired); !res.Ok() {
				return string(errors.ErrCodeUnknown)
			}
		}
		return ""
	})

	return s.finish(ctx, r, successful(http.StatusOK, summary,
		fmt.Sprintf("Offer batches started for %d listings", summary.Listings)))
}

// HandleExpiredOffers lets the leasing store close offers past their
// deadline and re-issues every affected listing.
func (s *Service) HandleExpiredOffers(ctx context.Context) domain.ProcessResult {
	ctx, r := s.start(ctx, processHandleExpiredOffer, "", nil)

	idsRes := s.leasing.HandleExpiredOffers(ctx)
	if !idsRes.Ok() {
		return s.finish(ctx, r, failed(errors.ErrCodeUnknown, "Could not handle expired offers"))
	}
	summary := s.runBatch(ctx, r, idsRes.Data(), nil)

	return s.finish(ctx, r, successful(http.StatusOK, summary,
		fmt.Sprintf("Expired offers handled for %d listings", summary.Listings)))
}

// runBatch paces CreateOffer over listingIDs. A non-nil prepare runs before
// each offer; a non-empty return fails that listing with the given tag.
func (s *Service) runBatch(ctx context.Context, r *run, listingIDs []int, prepare func(i int) string) BatchSummary {
	summary := BatchSummary{Listings: len(listingIDs), Failures: []BatchFailure{}}

	limit := rate.Inf
	if s.config.BatchRatePerSecond > 0 {
		limit = rate.Limit(s.config.BatchRatePerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, listingID := range listingIDs {
		if err := limiter.Wait(ctx); err != nil {
			for _, id := range listingIDs[i:] {
				summary.Failures = append(summary.Failures, BatchFailure{ListingID: id, Error: "cancelled"})
			}
			break
		}

		if prepare != nil {
			if tag := prepare(i); tag != "" {
				summary.Failures = append(summary.Failures, BatchFailure{ListingID: listingID, Error: tag})
				continue
			}
		}

		res := s.CreateOffer(ctx, listingID)
		if res.Succeeded() {
			summary.OffersCreated++
			continue
		}
		summary.Failures = append(summary.Failures, BatchFailure{ListingID: listingID, Error: res.Error})
	}

	if len(summary.Failures) > 0 {
		s.reportBatchFailures(ctx, r, summary)
	}
	return summary
}

func (s *Service) reportBatchFailures(ctx context.Context, r *run, summary BatchSummary) {
	lines := make([]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		lines = append(lines, fmt.Sprintf("listing %d: %s", f.ListingID, f.Error))
	}
	r.logger.Warn("offer batch finished with failures", map[string]interface{}{
		"listings": summary.Listings,
		"failures": len(summary.Failures),
	})

	subject := fmt.Sprintf("%s: %d of %d listings failed", r.process, len(summary.Failures), summary.Listings)
	if err := s.notifier.SendNotificationToRole(ctx, s.config.FailureRole, subject, strings.Join(lines, "\n")); err != nil {
		r.logger.Warn("batch failure notification not sent", map[string]interface{}{"error": err})
	}
}
