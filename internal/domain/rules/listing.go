package rules

import "github.com/ivankudzin/automarket/backend/internal/domain/enums"

// AvailabilityFor derives the availability a listing must have once its
// validation status is v. Sold listings stay sold and rented listings keep
// their renter until the rental is returned.
func AvailabilityFor(v enums.ValidationStatus, current enums.Availability) enums.Availability {
	switch v {
	case enums.ValidationBanned:
		if current == enums.AvailabilitySold {
			return current
		}
		if current == enums.AvailabilityRented {
			return current
		}
		return enums.AvailabilityBanned
	case enums.ValidationSuspended, enums.ValidationRejected, enums.ValidationRetired:
		if current == enums.AvailabilityAvailable {
			return enums.AvailabilitySuspended
		}
		return current
	default:
		if current == enums.AvailabilitySuspended {
			return enums.AvailabilityAvailable
		}
		return current
	}
}

// Blocks reports whether validation status v keeps a listing off the market.
func Blocks(v enums.ValidationStatus) bool {
	switch v {
	case enums.ValidationSuspended, enums.ValidationRejected, enums.ValidationRetired, enums.ValidationBanned:
		return true
	}
	return false
}

// AvailabilityOnCompletion is the availability a listing takes when a
// transaction of the given kind completes.
func AvailabilityOnCompletion(kind enums.OfferType) enums.Availability {
	if kind == enums.OfferRental {
		return enums.AvailabilityRented
	}
	return enums.AvailabilitySold
}

// AvailabilityAfterReturn is the availability a rented listing takes once the
// vehicle is back. A listing moderated while on rent comes back blocked.
func AvailabilityAfterReturn(v enums.ValidationStatus) enums.Availability {
	if v == enums.ValidationBanned {
		return enums.AvailabilityBanned
	}
	if Blocks(v) {
		return enums.AvailabilitySuspended
	}
	return enums.AvailabilityAvailable
}
