// internal/domain/offer.go
package domain

import "time"

type OfferStatus string

const (
	OfferStatusActive   OfferStatus = "Active"
	OfferStatusAccepted OfferStatus = "Accepted"
	OfferStatusDeclined OfferStatus = "Declined"
	OfferStatusExpired  OfferStatus = "Expired"
)

// Offer proposes one listing to one applicant. At most one offer per
// listing and per contact is Active at any time.
type Offer struct {
	ID                 int         `json:"id"`
	ListingID          int         `json:"listingId"`
	RentalObjectCode   string      `json:"rentalObjectCode"`
	OfferedApplicant   Applicant   `json:"offeredApplicant"`
	SelectedApplicants []Applicant `json:"selectedApplicants"`
	Status             OfferStatus `json:"status"`
	CreatedAt          time.Time   `json:"createdAt"`
	SentAt             *time.Time  `json:"sentAt,omitempty"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	AnsweredAt         *time.Time  `json:"answeredAt,omitempty"`
}

type NewOffer struct {
	ListingID          int         `json:"listingId"`
	ApplicantID        int         `json:"applicantId"`
	SelectedApplicants []Applicant `json:"selectedApplicants"`
	Status             OfferStatus `json:"status"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	SentAt             *time.Time  `json:"sentAt,omitempty"`
}
