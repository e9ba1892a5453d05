package parkingspaces

import (
	"context"
	"net/http"
	"testing"

	"parkingspace-workers/internal/adapters/leasing"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStartOfferBatches(t *testing.T) {
	svc, d := createTestService(t, nil)

	elapsed := createListing(domain.ListingStatusActive)
	elapsed.PublishedTo = testNow.AddDate(0, 0, -1)
	stuck := elapsed
	stuck.ID = 43
	gone := createListing(domain.ListingStatusExpired)
	gone.ID = 44
	stillOpen := createListing(domain.ListingStatusActive)
	stillOpen.ID = 45
	stillOpen.PublishedTo = testNow.AddDate(0, 0, 2)

	d.leasing.On("GetExpiredListingsWithNoOffers", mock.Anything).
		Return(result.Ok[[]domain.Listing, leasing.FetchError]([]domain.Listing{elapsed, stuck, gone, stillOpen})).Once()

	// 42 expires and gets an offer
	d.leasing.On("UpdateListingStatus", mock.Anything, testListingID, domain.ListingStatusExpired).Return(emptyOK).Once()
	p1 := createApplicant(1, "P1", intPtr(1), testNow.AddDate(0, 0, -3))
	expectListing(d, domain.ListingStatusExpired)
	expectNoActiveOffer(d)
	expectApplicants(d, p1)
	expectStillEligible(d, "P1")
	expectWinner(d, p1)
	d.notifier.On("SendParkingSpaceOfferEmail", mock.Anything, mock.Anything).Return(nil).Once()
	d.leasing.On("CreateOffer", mock.Anything, mock.Anything).
		Return(result.Ok[domain.Offer, leasing.CreateError](offerFor(100, p1))).Once()

	// 43 cannot be expired
	d.leasing.On("UpdateListingStatus", mock.Anything, 43, domain.ListingStatusExpired).
		Return(fetchErr[leasing.Empty](leasing.FetchUnknown)).Once()

	// 44 disappeared
	d.leasing.On("GetListingByListingID", mock.Anything, 44).Return(fetchErr[domain.Listing](leasing.FetchNotFound)).Once()

	d.notifier.On("SendNotificationToRole", mock.Anything, "dev", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return msg == "listing 43: unknown\nlisting 44: no-listing"
	})).Return(nil).Once()

	res := svc.StartOfferBatches(t.Context())

	require.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	summary, ok := res.Data.(BatchSummary)
	require.True(t, ok)
	assert.Equal(t, 3, summary.Listings)
	assert.Equal(t, 1, summary.OffersCreated)
	assert.Equal(t, []BatchFailure{
		{ListingID: 43, Error: "unknown"},
		{ListingID: 44, Error: "no-listing"},
	}, summary.Failures)
	d.leasing.AssertNotCalled(t, "UpdateListingStatus", mock.Anything, 45, mock.Anything)
	d.leasing.AssertNotCalled(t, "GetListingByListingID", mock.Anything, 45)
}

func TestStartOfferBatches_UpstreamFailure(t *testing.T) {
	svc, d := createTestService(t, nil)
	d.leasing.On("GetExpiredListingsWithNoOffers", mock.Anything).
		Return(fetchErr[[]domain.Listing](leasing.FetchUnknown)).Once()

	res := svc.StartOfferBatches(t.Context())

	assert.Equal(t, domain.ProcessStatusFailed, res.ProcessStatus)
	assert.Equal(t, "unknown", res.Error)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus)
}

func TestHandleExpiredOffers(t *testing.T) {
	t.Run("nothing expired", func(t *testing.T) {
		svc, d := createTestService(t, nil)
		d.leasing.On("HandleExpiredOffers", mock.Anything).Return(result.Ok[[]int, leasing.FetchError]([]int{})).Once()

		res := svc.HandleExpiredOffers(t.Context())

		assert.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
		summary := res.Data.(BatchSummary)
		assert.Zero(t, summary.Listings)
		assert.Empty(t, summary.Failures)
		d.notifier.AssertNotCalled(t, "SendNotificationToRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("re-offer fails", func(t *testing.T) {
		svc, d := createTestService(t, nil)
		d.leasing.On("HandleExpiredOffers", mock.Anything).Return(result.Ok[[]int, leasing.FetchError]([]int{testListingID})).Once()
		expectListing(d, domain.ListingStatusExpired)
		expectNoActiveOffer(d)
		expectApplicants(d)
		d.notifier.On("SendNotificationToRole", mock.Anything, "dev", mock.Anything, mock.Anything).Return(nil).Once()

		res := svc.HandleExpiredOffers(t.Context())

		summary := res.Data.(BatchSummary)
		assert.Equal(t, 1, summary.Listings)
		assert.Equal(t, []BatchFailure{{ListingID: testListingID, Error: "no-applicants"}}, summary.Failures)
	})

	t.Run("cancelled context fails remaining listings", func(t *testing.T) {
		svc, d := createTestService(t, nil)
		d.leasing.On("HandleExpiredOffers", mock.Anything).Return(result.Ok[[]int, leasing.FetchError]([]int{1, 2})).Once()
		d.notifier.On("SendNotificationToRole", mock.Anything, "dev", mock.Anything, mock.Anything).Return(nil).Once()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		res := svc.HandleExpiredOffers(ctx)

		summary := res.Data.(BatchSummary)
		assert.Equal(t, []BatchFailure{{ListingID: 1, Error: "cancelled"}, {ListingID: 2, Error: "cancelled"}}, summary.Failures)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc, d := createTestService(t, nil)
		d.leasing.On("HandleExpiredOffers", mock.Anything).Return(fetchErr[[]int](leasing.FetchUnknown)).Once()

		res := svc.HandleExpiredOffers(t.Context())

		assert.Equal(t, "unknown", res.Error)
	})
}
