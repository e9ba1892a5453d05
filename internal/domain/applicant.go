// internal/domain/applicant.go
package domain

import (
	"fmt"
	"time"
)

type ApplicationType string

const (
	ApplicationTypeReplace    ApplicationType = "Replace"
	ApplicationTypeAdditional ApplicationType = "Additional"
)

// ParseApplicationType validates a raw application type.
func ParseApplicationType(s string) (ApplicationType, error) {
	t := ApplicationType(s)
	switch t {
	case ApplicationTypeReplace, ApplicationTypeAdditional:
		return t, nil
	}
	return "", fmt.Errorf("unknown application type %q", s)
}

type ApplicantStatus string

const (
	ApplicantStatusActive             ApplicantStatus = "Active"
	ApplicantStatusOffered            ApplicantStatus = "Offered"
	ApplicantStatusOfferAccepted      ApplicantStatus = "OfferAccepted"
	ApplicantStatusOfferDeclined      ApplicantStatus = "OfferDeclined"
	ApplicantStatusOfferExpired       ApplicantStatus = "OfferExpired"
	ApplicantStatusIneligible         ApplicantStatus = "Ineligible"
	ApplicantStatusWithdrawnByUser    ApplicantStatus = "WithdrawnByUser"
	ApplicantStatusWithdrawnByManager ApplicantStatus = "WithdrawnByManager"
)

// IsWithdrawn reports whether the applicant left the listing and may re-apply.
func (s ApplicantStatus) IsWithdrawn() bool {
	return s == ApplicantStatusWithdrawnByUser || s == ApplicantStatusWithdrawnByManager
}

// Applicant is one contact's interest in one listing.
type Applicant struct {
	ID                         int             `json:"id"`
	Name                       string          `json:"name"`
	ContactCode                string          `json:"contactCode"`
	NationalRegistrationNumber string          `json:"nationalRegistrationNumber"`
	ListingID                  int             `json:"listingId"`
	ApplicationType            ApplicationType `json:"applicationType"`
	Status                     ApplicantStatus `json:"status"`
	ApplicationDate            time.Time       `json:"applicationDate"`
	QueueTime                  *time.Time      `json:"queueTime,omitempty"`
	Priority                   *int            `json:"priority,omitempty"`
}

// NewApplicant is the payload for registering an applicant on a listing.
type NewApplicant struct {
	Name                       string          `json:"name"`
	ContactCode                string          `json:"contactCode"`
	NationalRegistrationNumber string          `json:"nationalRegistrationNumber"`
	ListingID                  int             `json:"listingId"`
	ApplicationType            ApplicationType `json:"applicationType"`
	Status                     ApplicantStatus `json:"status"`
	ApplicationDate            time.Time       `json:"applicationDate"`
}
