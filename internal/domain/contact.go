// internal/domain/contact.go
package domain

import "time"

type Contact struct {
	ContactCode                string `json:"contactCode"`
	NationalRegistrationNumber string `json:"nationalRegistrationNumber"`
	FirstName                  string `json:"firstName"`
	LastName                   string `json:"lastName"`
	FullName                   string `json:"fullName"`
	EmailAddress               string `json:"emailAddress"`
	PhoneNumber                string `json:"phoneNumber"`
	IsTenant                   bool   `json:"isTenant"`
}

type Lease struct {
	LeaseID          string `json:"leaseId"`
	RentalObjectCode string `json:"rentalPropertyId"`
	Type             string `json:"type"`
	Status           string `json:"status"`
}

const (
	WaitingListTypeParkingSpace    = "ParkingSpace"
	WaitingListTypeInternalCaption = "Bilplats (intern)"
	WaitingListTypeExternalCaption = "Bilplats (extern)"
)

// WaitingList is one queue membership for a contact.
type WaitingList struct {
	ContactCode     string    `json:"contactCode"`
	WaitingListType string    `json:"waitingListType"`
	QueueTime       time.Time `json:"queueTime"`
	QueuePoints     int       `json:"queuePoints"`
}

// CoversParkingSpace reports whether the entry enrols the contact in the
// parking space queue, accepting the legacy internal caption.
func (w WaitingList) CoversParkingSpace() bool {
	return w.WaitingListType == WaitingListTypeParkingSpace ||
		w.WaitingListType == WaitingListTypeInternalCaption
}
