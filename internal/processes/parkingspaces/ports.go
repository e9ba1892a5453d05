package parkingspaces

import (
	"context"

	"parkingspace-workers/internal/adapters/communication"
	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/audit"
	"parkingspace-workers/internal/common/result"
	"parkingspace-workers/internal/domain"
)

type RentalRuleChecker interface {
	ValidatePropertyRentalRules(ctx context.Context, contactCode, rentalObjectCode string) result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError]
	ValidateResidentialAreaRentalRules(ctx context.Context, contactCode, districtCode string) result.Result[leasing.RentalRuleValidation, leasing.RentalRuleError]
}

type WaitingListClient interface {
	GetWaitingList(ctx context.Context, pnr string) result.Result[[]domain.WaitingList, leasing.FetchError]
	AddApplicantToWaitingList(ctx context.Context, pnr, contactCode, waitingListType string) result.Result[leasing.Empty, leasing.CreateError]
}

type ListingStore interface {
	GetActiveListingByRentalObjectCode(ctx context.Context, rentalObjectCode string) result.Result[domain.Listing, leasing.FetchError]
	CreateNewListing(ctx context.Context, listing domain.NewListing) result.Result[domain.Listing, leasing.CreateError]
}

// LeasingAdapter is everything the workflow needs from the leasing store.
type LeasingAdapter interface {
	RentalRuleChecker
	WaitingListClient
	ListingStore

	GetContact(ctx context.Context, contactCode string) result.Result[domain.Contact, leasing.FetchError]
	GetLeasesForPnr(ctx context.Context, pnr string) result.Result[[]domain.Lease, leasing.FetchError]
	GetInternalCreditInformation(ctx context.Context, contactCode string) result.Result[bool, leasing.FetchError]

	GetListingByListingID(ctx context.Context, listingID int) result.Result[domain.Listing, leasing.FetchError]
	UpdateListingStatus(ctx context.Context, listingID int, status domain.ListingStatus) result.Result[leasing.Empty, leasing.FetchError]
	GetExpiredListingsWithNoOffers(ctx context.Context) result.Result[[]domain.Listing, leasing.FetchError]

	ApplyForListing(ctx context.Context, applicant domain.NewApplicant) result.Result[domain.Applicant, leasing.CreateError]
	GetApplicantByContactCodeAndListingID(ctx context.Context, contactCode string, listingID int) result.Result[domain.Applicant, leasing.FetchError]
	GetDetailedApplicantsByListingID(ctx context.Context, listingID int) result.Result[[]domain.Applicant, leasing.FetchError]
	UpdateApplicantStatus(ctx context.Context, applicantID int, status domain.ApplicantStatus) result.Result[leasing.Empty, leasing.FetchError]
	WithdrawApplicantByUser(ctx context.Context, applicantID int, contactCode string) result.Result[leasing.Empty, leasing.FetchError]
	WithdrawApplicantByManager(ctx context.Context, applicantID int) result.Result[leasing.Empty, leasing.FetchError]

	CreateOffer(ctx context.Context, offer domain.NewOffer) result.Result[domain.Offer, leasing.CreateError]
	GetOfferByOfferID(ctx context.Context, offerID int) result.Result[domain.Offer, leasing.FetchError]
	GetOffersForContact(ctx context.Context, contactCode string) result.Result[[]domain.Offer, leasing.FetchError]
	GetActiveOfferByListingID(ctx context.Context, listingID int) result.Result[domain.Offer, leasing.FetchError]
	CloseOfferByAccept(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError]
	CloseOfferByDeny(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError]
	CloseOfferByExpire(ctx context.Context, offerID int) result.Result[leasing.Empty, leasing.FetchError]
	HandleExpiredOffers(ctx context.Context) result.Result[[]int, leasing.FetchError]
}

type ParkingSpaceLookup interface {
	GetPublishedParkingSpace(ctx context.Context, rentalObjectCode string) result.Result[domain.PublishedParkingSpace, published.LookupError]
}

type Notifier interface {
	SendParkingSpaceOfferEmail(ctx context.Context, offer communication.OfferEmail) error
	SendNotificationToContact(ctx context.Context, contact domain.Contact, subject, message string) error
	SendNotificationToRole(ctx context.Context, role, subject, message string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// OfferGuard serialises offer issuance per listing across workers.
type OfferGuard interface {
	Acquire(ctx context.Context, listingID int) (release func(), acquired bool, err error)
}
