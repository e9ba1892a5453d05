package parkingspaces

import (
	"net/http"
	"testing"

	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ==========================
// Test Helper Functions
// ==========================

const (
	testContactCode = "P12345"
	testPnr         = "1212121212"
	testSpaceCode   = "705-808-00-0006"
	testDistrict    = "DIS-1"
	testListingID   = 42
)

func createPublishedSpace() domain.PublishedParkingSpace {
	return domain.PublishedParkingSpace{
		RentalObjectCode: testSpaceCode,
		Address:          "Testgatan 1",
		MonthlyRent:      450,
		DistrictCaption:  "Centrum",
		DistrictCode:     testDistrict,
		RentalRule:       domain.RentalRuleScored,
		WaitingListType:  domain.WaitingListTypeInternalCaption,
		PublishedFrom:    testNow.AddDate(0, 0, -14),
		PublishedTo:      testNow.AddDate(0, 0, 7),
	}
}

func createContact() domain.Contact {
	return domain.Contact{
		ContactCode:                testContactCode,
		NationalRegistrationNumber: testPnr,
		FirstName:                  "Test",
		LastName:                   "Testsson",
		FullName:                   "Test Testsson",
		EmailAddress:               "test@example.com",
		IsTenant:                   true,
	}
}

func createListing(status domain.ListingStatus) domain.Listing {
	return domain.Listing{
		ID:               testListingID,
		RentalObjectCode: testSpaceCode,
		Address:          "Testgatan 1",
		MonthlyRent:      450,
		DistrictCaption:  "Centrum",
		DistrictCode:     testDistrict,
		WaitingListType:  domain.WaitingListTypeInternalCaption,
		Status:           status,
	}
}

func spaceOK(space domain.PublishedParkingSpace) result.Result[domain.PublishedParkingSpace, published.LookupError] {
	return result.Ok[domain.PublishedParkingSpace, published.LookupError](space)
}

// expectEligible stubs steps 1 to 6 of an application with the given rental
// rule entitlement and a passing credit check.
func expectEligible(d *testDeps, entitlement domain.ApplicationType) {
	d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
	d.leasing.On("GetContact", mock.Anything, testContactCode).
		Return(result.Ok[domain.Contact, leasing.FetchError](createContact())).Once()
	d.leasing.On("GetLeasesForPnr", mock.Anything, testPnr).
		Return(result.Ok[[]domain.Lease, leasing.FetchError]([]domain.Lease{{LeaseID: "306-001-01-0101/01"}})).Once()
	d.leasing.On("ValidatePropertyRentalRules", mock.Anything, testContactCode, testSpaceCode).
		Return(rentalRuleOK(entitlement)).Once()
	d.leasing.On("ValidateResidentialAreaRentalRules", mock.Anything, testContactCode, testDistrict).
		Return(rentalRuleOK(entitlement)).Once()
	d.leasing.On("GetInternalCreditInformation", mock.Anything, testContactCode).
		Return(result.Ok[bool, leasing.FetchError](true)).Once()
}

// expectRegistered stubs an existing waiting list entry and active listing.
func expectRegistered(d *testDeps) {
	d.leasing.On("GetWaitingList", mock.Anything, testPnr).
		Return(result.Ok[[]domain.WaitingList, leasing.FetchError]([]domain.WaitingList{
			{ContactCode: testContactCode, WaitingListType: domain.WaitingListTypeParkingSpace},
		})).Once()
	d.leasing.On("GetActiveListingByRentalObjectCode", mock.Anything, testSpaceCode).
		Return(result.Ok[domain.Listing, leasing.FetchError](createListing(domain.ListingStatusActive))).Once()
}

func createApplyInput(appType domain.ApplicationType) ApplyInput {
	return ApplyInput{
		ParkingSpaceID:  testSpaceCode,
		ContactCode:     testContactCode,
		ApplicationType: string(appType),
	}
}

func matchNewApplicant(appType domain.ApplicationType) interface{} {
	return mock.MatchedBy(func(a domain.NewApplicant) bool {
		return a.ContactCode == testContactCode &&
			a.ListingID == testListingID &&
			a.ApplicationType == appType &&
			a.Status == domain.ApplicantStatusActive &&
			a.NationalRegistrationNumber == testPnr
	})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestApplyForParkingSpace_NewApplicant(t *testing.T) {
	svc, d := createTestService(t, nil)
	expectEligible(d, domain.ApplicationTypeAdditional)

	d.leasing.On("GetWaitingList", mock.Anything, testPnr).
		Return(result.Ok[[]domain.WaitingList, leasing.FetchError](nil)).Once()
	d.leasing.On("AddApplicantToWaitingList", mock.Anything, testPnr, testContactCode, domain.WaitingListTypeParkingSpace).
		Return(result.Ok[leasing.Empty, leasing.CreateError](leasing.Empty{})).Once()
	d.leasing.On("GetActiveListingByRentalObjectCode", mock.Anything, testSpaceCode).
		Return(fetchErr[domain.Listing](leasing.FetchNotFound)).Once()
	d.leasing.On("CreateNewListing", mock.Anything, createPublishedSpace().ToNewListing()).
		Return(result.Ok[domain.Listing, leasing.CreateError](createListing(domain.ListingStatusActive))).Once()
	d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
		Return(fetchErr[domain.Applicant](leasing.FetchNotFound)).Once()
	d.leasing.On("ApplyForListing", mock.Anything, matchNewApplicant(domain.ApplicationTypeReplace)).
		Return(result.Ok[domain.Applicant, leasing.CreateError](domain.Applicant{ID: 7, ContactCode: testContactCode})).Once()

	res := svc.ApplyForParkingSpace(t.Context(), createApplyInput(domain.ApplicationTypeReplace))

	assert.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	if assert.NotNil(t, res.Response) {
		assert.Equal(t, "Applicant P12345 successfully applied to parking space 705-808-00-0006", res.Response.Message)
	}
}

func TestApplyForParkingSpace_AlreadyActiveIsIdempotent(t *testing.T) {
	svc, d := createTestService(t, nil)

	for i := 0; i < 2; i++ {
		expectEligible(d, domain.ApplicationTypeAdditional)
		expectRegistered(d)
		d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
			Return(result.Ok[domain.Applicant, leasing.FetchError](domain.Applicant{
				ID: 7, ContactCode: testContactCode, ListingID: testListingID, Status: domain.ApplicantStatusActive,
			})).Once()

		res := svc.ApplyForParkingSpace(t.Context(), createApplyInput(domain.ApplicationTypeAdditional))

		assert.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
		assert.Equal(t, http.StatusOK, res.HTTPStatus)
		assert.Contains(t, res.Response.Message, "already has application")
	}
	d.leasing.AssertNotCalled(t, "ApplyForListing", mock.Anything, mock.Anything)
	d.leasing.AssertNotCalled(t, "AddApplicantToWaitingList", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyForParkingSpace_WithdrawnApplicantReapplies(t *testing.T) {
	for _, status := range []domain.ApplicantStatus{domain.ApplicantStatusWithdrawnByUser, domain.ApplicantStatusWithdrawnByManager} {
		t.Run(string(status), func(t *testing.T) {
			svc, d := createTestService(t, nil)
			expectEligible(d, domain.ApplicationTypeAdditional)
			expectRegistered(d)
			d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
				Return(result.Ok[domain.Applicant, leasing.FetchError](domain.Applicant{ID: 7, Status: status})).Once()
			d.leasing.On("ApplyForListing", mock.Anything, matchNewApplicant(domain.ApplicationTypeAdditional)).
				Return(result.Ok[domain.Applicant, leasing.CreateError](domain.Applicant{ID: 8, Status: domain.ApplicantStatusActive})).Once()

			res := svc.ApplyForParkingSpace(t.Context(), createApplyInput(domain.ApplicationTypeAdditional))

			assert.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
			assert.Equal(t, http.StatusOK, res.HTTPStatus)
		})
	}
}

func TestApplyForParkingSpace_ConflictRechecksExistingApplicant(t *testing.T) {
	svc, d := createTestService(t, nil)
	expectEligible(d, domain.ApplicationTypeAdditional)
	expectRegistered(d)
	d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
		Return(fetchErr[domain.Applicant](leasing.FetchNotFound)).Once()
	d.leasing.On("ApplyForListing", mock.Anything, mock.Anything).
		Return(result.Err[domain.Applicant](leasing.CreateConflict)).Once()
	d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
		Return(result.Ok[domain.Applicant, leasing.FetchError](domain.Applicant{ID: 7, Status: domain.ApplicantStatusActive})).Once()

	res := svc.ApplyForParkingSpace(t.Context(), createApplyInput(domain.ApplicationTypeReplace))

	assert.Equal(t, domain.ProcessStatusSuccessful, res.ProcessStatus)
	assert.Contains(t, res.Response.Message, "already has application")
}

// ==========================
// Failure Tests
// ==========================

func TestApplyForParkingSpace_Failures(t *testing.T) {
	tests := []struct {
		name       string
		input      ApplyInput
		setup      func(d *testDeps)
		wantError  string
		wantStatus int
	}{
		{
			name:       "missing contact code",
			input:      ApplyInput{ParkingSpaceID: testSpaceCode, ApplicationType: "Replace"},
			setup:      func(d *testDeps) {},
			wantError:  "invalid-input",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown application type",
			input:      ApplyInput{ParkingSpaceID: testSpaceCode, ContactCode: testContactCode, ApplicationType: "Swap"},
			setup:      func(d *testDeps) {},
			wantError:  "invalid-input",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "parking space not published",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).
					Return(result.Err[domain.PublishedParkingSpace](published.LookupNotFound)).Once()
			},
			wantError:  "parkingspace-not-found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "external parking space",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				space := createPublishedSpace()
				space.WaitingListType = domain.WaitingListTypeExternalCaption
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(space)).Once()
			},
			wantError:  "parkingspace-not-internal",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "contact not found",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
				d.leasing.On("GetContact", mock.Anything, testContactCode).Return(fetchErr[domain.Contact](leasing.FetchNotFound)).Once()
			},
			wantError:  "applicant-not-found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "contact without leases",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
				d.leasing.On("GetContact", mock.Anything, testContactCode).
					Return(result.Ok[domain.Contact, leasing.FetchError](createContact())).Once()
				d.leasing.On("GetLeasesForPnr", mock.Anything, testPnr).
					Return(result.Ok[[]domain.Lease, leasing.FetchError]([]domain.Lease{})).Once()
			},
			wantError:  "applicant-not-tenant",
			wantStatus: http.StatusForbidden,
		},
		{
			name:  "replace entitlement requesting additional",
			input: createApplyInput(domain.ApplicationTypeAdditional),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
				d.leasing.On("GetContact", mock.Anything, testContactCode).
					Return(result.Ok[domain.Contact, leasing.FetchError](createContact())).Once()
				d.leasing.On("GetLeasesForPnr", mock.Anything, testPnr).
					Return(result.Ok[[]domain.Lease, leasing.FetchError]([]domain.Lease{{LeaseID: "1"}})).Once()
				d.leasing.On("ValidatePropertyRentalRules", mock.Anything, testContactCode, testSpaceCode).
					Return(rentalRuleOK(domain.ApplicationTypeAdditional)).Once()
				d.leasing.On("ValidateResidentialAreaRentalRules", mock.Anything, testContactCode, testDistrict).
					Return(rentalRuleOK(domain.ApplicationTypeReplace)).Once()
			},
			wantError:  "not-allowed-to-rent-additional",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "no contract in the area",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
				d.leasing.On("GetContact", mock.Anything, testContactCode).
					Return(result.Ok[domain.Contact, leasing.FetchError](createContact())).Once()
				d.leasing.On("GetLeasesForPnr", mock.Anything, testPnr).
					Return(result.Ok[[]domain.Lease, leasing.FetchError]([]domain.Lease{{LeaseID: "1"}})).Once()
				d.leasing.On("ValidatePropertyRentalRules", mock.Anything, testContactCode, testSpaceCode).
					Return(rentalRuleErr(leasing.RentalRuleNotTenantInTheProperty)).Once()
				d.leasing.On("ValidateResidentialAreaRentalRules", mock.Anything, testContactCode, testDistrict).
					Return(rentalRuleOK(domain.ApplicationTypeReplace)).Once()
			},
			wantError:  "no-contract-in-the-area",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "credit check rejects",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				d.lookup.On("GetPublishedParkingSpace", mock.Anything, testSpaceCode).Return(spaceOK(createPublishedSpace())).Once()
				d.leasing.On("GetContact", mock.Anything, testContactCode).
					Return(result.Ok[domain.Contact, leasing.FetchError](createContact())).Once()
				d.leasing.On("GetLeasesForPnr", mock.Anything, testPnr).
					Return(result.Ok[[]domain.Lease, leasing.FetchError]([]domain.Lease{{LeaseID: "1"}})).Once()
				d.leasing.On("ValidatePropertyRentalRules", mock.Anything, testContactCode, testSpaceCode).
					Return(rentalRuleOK(domain.ApplicationTypeReplace)).Once()
				d.leasing.On("ValidateResidentialAreaRentalRules", mock.Anything, testContactCode, testDistrict).
					Return(rentalRuleOK(domain.ApplicationTypeReplace)).Once()
				d.leasing.On("GetInternalCreditInformation", mock.Anything, testContactCode).
					Return(result.Ok[bool, leasing.FetchError](false)).Once()
			},
			wantError:  "application-rejected",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "waiting list unavailable",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				expectEligible(d, domain.ApplicationTypeReplace)
				d.leasing.On("GetWaitingList", mock.Anything, testPnr).Return(fetchErr[[]domain.WaitingList](leasing.FetchUnknown)).Once()
			},
			wantError:  "unknown",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:  "existing applicant with accepted offer",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				expectEligible(d, domain.ApplicationTypeReplace)
				expectRegistered(d)
				d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
					Return(result.Ok[domain.Applicant, leasing.FetchError](domain.Applicant{ID: 7, Status: domain.ApplicantStatusOfferAccepted})).Once()
			},
			wantError:  "applicant-already-exists",
			wantStatus: http.StatusConflict,
		},
		{
			name:  "apply call fails",
			input: createApplyInput(domain.ApplicationTypeReplace),
			setup: func(d *testDeps) {
				expectEligible(d, domain.ApplicationTypeReplace)
				expectRegistered(d)
				d.leasing.On("GetApplicantByContactCodeAndListingID", mock.Anything, testContactCode, testListingID).
					Return(fetchErr[domain.Applicant](leasing.FetchNotFound)).Once()
				d.leasing.On("ApplyForListing", mock.Anything, mock.Anything).
					Return(result.Err[domain.Applicant](leasing.CreateUnknown)).Once()
			},
			wantError:  "unknown",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := createTestService(t, nil)
			tt.setup(d)

			res := svc.ApplyForParkingSpace(t.Context(), tt.input)

			assert.Equal(t, domain.ProcessStatusFailed, res.ProcessStatus)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, tt.wantStatus, res.HTTPStatus)
			assert.NotNil(t, res.Response)
		})
	}
}

// ==========================
// Registrar Tests
// ==========================

func TestWaitingListRegistrar_EnsureEnrolled(t *testing.T) {
	t.Run("legacy internal caption counts as enrolled", func(t *testing.T) {
		client := &MockLeasing{}
		client.On("GetWaitingList", mock.Anything, testPnr).
			Return(result.Ok[[]domain.WaitingList, leasing.FetchError]([]domain.WaitingList{
				{WaitingListType: domain.WaitingListTypeInternalCaption},
			})).Once()

		err := NewWaitingListRegistrar(client, testLogger(t)).EnsureEnrolled(t.Context(), testContactCode, testPnr)

		assert.NoError(t, err)
		client.AssertNotCalled(t, "AddApplicantToWaitingList", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing list and conflict on add is enrolled", func(t *testing.T) {
		client := &MockLeasing{}
		client.On("GetWaitingList", mock.Anything, testPnr).Return(fetchErr[[]domain.WaitingList](leasing.FetchNotFound)).Once()
		client.On("AddApplicantToWaitingList", mock.Anything, testPnr, testContactCode, domain.WaitingListTypeParkingSpace).
			Return(result.Err[leasing.Empty](leasing.CreateConflict)).Once()

		err := NewWaitingListRegistrar(client, testLogger(t)).EnsureEnrolled(t.Context(), testContactCode, testPnr)

		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("add failure", func(t *testing.T) {
		client := &MockLeasing{}
		client.On("GetWaitingList", mock.Anything, testPnr).
			Return(result.Ok[[]domain.WaitingList, leasing.FetchError]([]domain.WaitingList{
				{WaitingListType: domain.WaitingListTypeExternalCaption},
			})).Once()
		client.On("AddApplicantToWaitingList", mock.Anything, testPnr, testContactCode, domain.WaitingListTypeParkingSpace).
			Return(result.Err[leasing.Empty](leasing.CreateUnknown)).Once()

		err := NewWaitingListRegistrar(client, testLogger(t)).EnsureEnrolled(t.Context(), testContactCode, testPnr)

		assert.ErrorIs(t, err, ErrWaitingListUnavailable)
	})
}

func TestListingRegistrar_EnsureListing(t *testing.T) {
	space := createPublishedSpace()

	t.Run("create conflict refetches", func(t *testing.T) {
		store := &MockLeasing{}
		store.On("GetActiveListingByRentalObjectCode", mock.Anything, testSpaceCode).
			Return(fetchErr[domain.Listing](leasing.FetchNotFound)).Once()
		store.On("CreateNewListing", mock.Anything, space.ToNewListing()).
			Return(result.Err[domain.Listing](leasing.CreateConflict)).Once()
		store.On("GetActiveListingByRentalObjectCode", mock.Anything, testSpaceCode).
			Return(result.Ok[domain.Listing, leasing.FetchError](createListing(domain.ListingStatusActive))).Once()

		listing, err := NewListingRegistrar(store, testLogger(t)).EnsureListing(t.Context(), space)

		assert.NoError(t, err)
		assert.Equal(t, testListingID, listing.ID)
		store.AssertExpectations(t)
	})

	t.Run("refetch after conflict fails", func(t *testing.T) {
		store := &MockLeasing{}
		store.On("GetActiveListingByRentalObjectCode", mock.Anything, testSpaceCode).
			Return(fetchErr[domain.Listing](leasing.FetchNotFound)).Twice()
		store.On("CreateNewListing", mock.Anything, space.ToNewListing()).
			Return(result.Err[domain.Listing](leasing.CreateConflict)).Once()

		listing, err := NewListingRegistrar(store, testLogger(t)).EnsureListing(t.Context(), space)

		assert.Nil(t, listing)
		assert.ErrorIs(t, err, ErrListingUnavailable)
	})

	t.Run("new listing copies published metadata", func(t *testing.T) {
		nl := space.ToNewListing()
		assert.Equal(t, domain.ListingStatusActive, nl.Status)
		assert.Equal(t, space.Address, nl.Address)
		assert.Equal(t, space.DistrictCode, nl.DistrictCode)
		assert.Equal(t, space.PublishedTo, nl.PublishedTo)
		assert.Equal(t, space.WaitingListType, nl.WaitingListType)
	})
}
