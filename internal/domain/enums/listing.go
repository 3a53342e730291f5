package enums

type OfferType string

const (
	OfferSale   OfferType = "sale"
	OfferRental OfferType = "rental"
)

func (t OfferType) Valid() bool {
	return t == OfferSale || t == OfferRental
}

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilitySold      Availability = "sold"
	AvailabilityRented    Availability = "rented"
	AvailabilitySuspended Availability = "suspended"
	AvailabilityBanned    Availability = "banned"
)
