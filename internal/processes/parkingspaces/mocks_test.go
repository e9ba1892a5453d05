package parkingspaces

import (
	"context"
	"testing"
	"time"

	"parkingspace-workers/internal/adapters/communication"
	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/audit"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testDeps struct {
	leasing  *MockLeasing
	lookup   *MockLookup
	notifier *MockNotifier
	audit    *MockAudit
}

func createTestService(t *testing.T, guard OfferGuard) (*Service, *testDeps) {
	deps := &testDeps{
		leasing:  &MockLeasing{},
		lookup:   &MockLookup{},
		notifier: &MockNotifier{},
		audit:    &MockAudit{},
	}
	deps.audit.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewService(Dependencies{
		Leasing:  deps.leasing,
		Lookup:   deps.lookup,
		Notifier: deps.notifier,
		Audit:    deps.audit,
		Guard:    guard,
		Logger:   logger.NewTestLogger(t),
	}, Config{
		OfferTTL:                 72 * time.Hour,
		SiblingDenialConcurrency: 2,
	})
	svc.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		deps.leasing.AssertExpectations(t)
		deps.lookup.AssertExpectations(t)
		deps.notifier.AssertExpectations(t)
	})
	return svc, deps
}

func testLogger(t *testing.T) logger.Logger { return logger.NewTestLogger(t) }

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func fetchErr[T any](tag leasing.FetchError) result.Result[T, leasing.FetchError] {
	return result.Err[T](tag)
}

var emptyOK = result.Ok[leasing.Empty, leasing.FetchError](leasing.Empty{})

// ==========================
// Mocks
// ==========================

type MockLeasing struct {
	mock.Mock
}

func (m *MockLeasing) ValidatePropertyRentalRules(ctx context.Context, contactCode, rentalObjectCode string) result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError] {
	args := m.Called(ctx, contactCode, rentalObjectCode)
	return args.Get(0).(result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError])
}

func (m *MockLeasing) ValidateResidentialAreaRentalRules(ctx context.Context, contactCode, districtCode string) result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError] {
	args := m.Called(ctx, contactCode, districtCode)
	return args.Get(0).(result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError])
}

func (m *MockLeasing) GetWaitingList(ctx context.Context, pnr string) result.Result[[]domain.WaitingList, leasing.FetchError] {
	args := m.Called(ctx, pnr)
	return args.Get(0).(result.Result[[]domain.WaitingList, leasing.FetchError])
}

func (m *MockLeasing) AddApplicantToWaitingList(ctx context.Context, pnr, contactCode, waitingListType string) result.Result[leasing.Empty, leasing.CreateError] {
	args := m.Called(ctx, pnr, contactCode, waitingListType)
	return args.Get(0).(result.Result[leasing.Empty, leasing.CreateError])
}

func (m *MockLeasing) GetActiveListingByRentalObjectCode(ctx context.Context, rentalObjectCode string) result.Result[domain.Listing, leasing.FetchError] {
	args := m.Called(ctx, rentalObjectCode)
	return args.Get(0).(result.Result[domain.Listing, leasing.FetchError])
}

func (m *MockLeasing) CreateNewListing(ctx context.Context, listing domain.NewListing) result.Result[domain.Listing, leasing.CreateError] {
	args := m.Called(ctx, listing)
	return args.Get(0).(result.Result[domain.Listing, leasing.CreateError])
}

func (m *MockLeasing) GetContact(ctx context.Context, contactCode string) result.Result[domain.Contact, leasing.FetchError] {
	args := m.Called(ctx, contactCode)
	return args.Get(0).(result.Result[domain.Contact, leasing.FetchError])
}

func (m *MockLeasing) GetLeasesForPnr(ctx context.Context, pnr string) result.Result[[]domain.Lease, leasing.FetchError] {
	args := m.Called(ctx, pnr)
	return args.Get(0).(result.Result[[]domain.Lease, leasing.FetchError])
}

func (m *MockLeasing) GetInternalCreditInformation(ctx context.Context, contactCode string) result.Result[bool, leasing.FetchError] {
	args := m.Called(ctx, contactCode)
	return args.Get(0).(result.Result[bool, leasing.FetchError])
}

func (m *MockLeasing) GetListingByListingID(ctx context.Context, listingID int) result.Result[domain.Listing, leasing.FetchError] {
	args := m.Called(ctx, listingID)
	return args.Get(0).(result.Result[domain.Listing, leasing.FetchError])
}

func (m *MockLeasing) UpdateListingStatus(ctx context.Context, listingID int, status domain.ListingStatus) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, listingID, status)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) GetExpiredListingsWithNoOffers(ctx context.Context) result.Result[[]domain.Listing, leasing.FetchError] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]domain.Listing, leasing.FetchError])
}

func (m *MockLeasing) ApplyForListing(ctx context.Context, applicant domain.NewApplicant) result.Result[domain.Applicant, leasing.CreateError] {
	args := m.Called(ctx, applicant)
	return args.Get(0).(result.Result[domain.Applicant, leasing.CreateError])
}

func (m *MockLeasing) GetApplicantByContactCodeAndListingID(ctx context.Context, contactCode string, listingID int) result.Result[domain.Applicant, leasing.FetchError] {
	args := m.Called(ctx, contactCode, listingID)
	return args.Get(0).(result.Result[domain.Applicant, leasing.FetchError])
}

func (m *MockLeasing) GetDetailedApplicantsByListingID(ctx context.Context, listingID int) result.Result[[]domain.Applicant, leasing.FetchError] {
	args := m.Called(ctx, listingID)
	return args.Get(0).(result.Result[[]domain.Applicant, leasing.FetchError])
}

func (m *MockLeasing) UpdateApplicantStatus(ctx context.Context, applicantID int, status domain.ApplicantStatus) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, applicantID, status)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) WithdrawApplicantByUser(ctx context.Context, applicantID int, contactCode string) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, applicantID, contactCode)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) WithdrawApplicantByManager(ctx context.Context, applicantID int) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, applicantID)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) CreateOffer(ctx context.Context, offer domain.NewOffer) result.Result[domain.Offer, leasing.CreateError] {
	args := m.Called(ctx, offer)
	return args.Get(0).(result.Result[domain.Offer, leasing.CreateError])
}

func (m *MockLeasing) GetOfferByOfferID(ctx context.Context, offerID int) result.Result[domain.Offer, leasing.FetchError] {
	args := m.Called(ctx, offerID)
	return args.Get(0).(result.Result[domain.Offer, leasing.FetchError])
}

func (m *MockLeasing) GetOffersForContact(ctx context.Context, contactCode string) result.Result[[]domain.Offer, leasing.FetchError] {
	args := m.Called(ctx, contactCode)
	return args.Get(0).(result.Result[[]domain.Offer, leasing.FetchError])
}

func (m *MockLeasing) GetActiveOfferByListingID(ctx context.Context, listingID int) result.Result[domain.Offer, leasing.FetchError] {
	args := m.Called(ctx, listingID)
	return args.Get(0).(result.Result[domain.Offer, leasing.FetchError])
}

func (m *MockLeasing) CloseOfferByAccept(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, offerID)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) CloseOfferByDeny(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, offerID)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) CloseOfferByExpire(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError] {
	args := m.Called(ctx, offerID)
	return args.Get(0).(result.Result[leasing.Empty, leasing.FetchError])
}

func (m *MockLeasing) HandleExpiredOffers(ctx context.Context) result.Result[[]int, leasing.FetchError] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]int, leasing.FetchError])
}

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) GetPublishedParkingSpace(ctx context.Context, rentalObjectCode string) result.Result[domain.PublishedParkingSpace, published.LookupError] {
	args := m.Called(ctx, rentalObjectCode)
	return args.Get(0).(result.Result[domain.PublishedParkingSpace, published.LookupError])
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendParkingSpaceOfferEmail(ctx context.Context, offer communication.OfferEmail) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockNotifier) SendNotificationToContact(ctx context.Context, contact domain.Contact, subject, message string) error {
	return m.Called(ctx, contact, subject, message).Error(0)
}

func (m *MockNotifier) SendNotificationToRole(ctx context.Context, role, subject, message string) error {
	return m.Called(ctx, role, subject, message).Error(0)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, e audit.Entry) error {
	return m.Called(ctx, e).Error(0)
}

// stubGuard hands out the guard once per listing until released.
type stubGuard struct {
	held map[int]bool
	err  error
}

func (g *stubGuard) Acquire(_ context.Context, listingID int) (func(), bool, error) {
	if g.err != nil {
		return func() {}, false, g.err
	}
	if g.held[listingID] {
		return func() {}, false, nil
	}
	g.held[listingID] = true
	return func() { delete(g.held, listingID) }, true, nil
}
