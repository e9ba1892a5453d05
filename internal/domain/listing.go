// internal/domain/listing.go
package domain

import "time"

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "Active"
	ListingStatusExpired  ListingStatus = "Expired"
	ListingStatusAssigned ListingStatus = "Assigned"
	ListingStatusDeleted  ListingStatus = "Deleted"
)

type RentalRule string

const (
	RentalRuleScored    RentalRule = "Scored"
	RentalRuleNonScored RentalRule = "NonScored"
)

// Listing is the internal record tracking one published parking space
// through the offer workflow.
type Listing struct {
	ID                int           `json:"id"`
	RentalObjectCode  string        `json:"rentalObjectCode"`
	Address           string        `json:"address"`
	MonthlyRent       float64       `json:"monthlyRent"`
	DistrictCaption   string        `json:"districtCaption"`
	DistrictCode      string        `json:"districtCode"`
	BlockCaption      string        `json:"blockCaption"`
	BlockCode         string        `json:"blockCode"`
	ObjectTypeCaption string        `json:"objectTypeCaption"`
	ObjectTypeCode    string        `json:"objectTypeCode"`
	RentalRule        RentalRule    `json:"rentalRule"`
	WaitingListType   string        `json:"waitingListType"`
	VacantFrom        *time.Time    `json:"vacantFrom,omitempty"`
	PublishedFrom     time.Time     `json:"publishedFrom"`
	PublishedTo       time.Time     `json:"publishedTo"`
	Status            ListingStatus `json:"status"`
}

// PublishWindowElapsed reports whether the listing is no longer published at now.
func (l Listing) PublishWindowElapsed(now time.Time) bool {
	return !l.PublishedTo.IsZero() && l.PublishedTo.Before(now)
}

// NewListing is the payload used to register a published parking space.
type NewListing struct {
	RentalObjectCode  string        `json:"rentalObjectCode"`
	Address           string        `json:"address"`
	MonthlyRent       float64       `json:"monthlyRent"`
	DistrictCaption   string        `json:"districtCaption"`
	DistrictCode      string        `json:"districtCode"`
	BlockCaption      string        `json:"blockCaption"`
	BlockCode         string        `json:"blockCode"`
	ObjectTypeCaption string        `json:"objectTypeCaption"`
	ObjectTypeCode    string        `json:"objectTypeCode"`
	RentalRule        RentalRule    `json:"rentalRule"`
	WaitingListType   string        `json:"waitingListType"`
	VacantFrom        *time.Time    `json:"vacantFrom,omitempty"`
	PublishedFrom     time.Time     `json:"publishedFrom"`
	PublishedTo       time.Time     `json:"publishedTo"`
	Status            ListingStatus `json:"status"`
}

// PublishedParkingSpace is a parking space as advertised by the property system.
type PublishedParkingSpace struct {
	RentalObjectCode  string     `json:"rentalObjectCode"`
	Address           string     `json:"address"`
	MonthlyRent       float64    `json:"monthlyRent"`
	DistrictCaption   string     `json:"districtCaption"`
	DistrictCode      string     `json:"districtCode"`
	BlockCaption      string     `json:"blockCaption"`
	BlockCode         string     `json:"blockCode"`
	ObjectTypeCaption string     `json:"objectTypeCaption"`
	ObjectTypeCode    string     `json:"objectTypeCode"`
	RentalRule        RentalRule `json:"rentalRule"`
	WaitingListType   string     `json:"waitingListType"`
	VacantFrom        *time.Time `json:"vacantFrom,omitempty"`
	PublishedFrom     time.Time  `json:"publishedFrom"`
	PublishedTo       time.Time  `json:"publishedTo"`
}

// IsInternal reports whether the space is allocated through the internal
// waiting list and offer workflow.
func (p PublishedParkingSpace) IsInternal() bool {
	return p.WaitingListType == WaitingListTypeInternalCaption
}

// ToNewListing copies the published metadata into a listing payload.
func (p PublishedParkingSpace) ToNewListing() NewListing {
	return NewListing{
		RentalObjectCode:  p.RentalObjectCode,
		Address:           p.Address,
		MonthlyRent:       p.MonthlyRent,
		DistrictCaption:   p.DistrictCaption,
		DistrictCode:      p.DistrictCode,
		BlockCaption:      p.BlockCaption,
		BlockCode:         p.BlockCode,
		ObjectTypeCaption: p.ObjectTypeCaption,
		ObjectTypeCode:    p.ObjectTypeCode,
		RentalRule:        p.RentalRule,
		WaitingListType:   p.WaitingListType,
		VacantFrom:        p.VacantFrom,
		PublishedFrom:     p.PublishedFrom,
		PublishedTo:       p.PublishedTo,
		Status:            ListingStatusActive,
	}
}
