// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"github.com/nyaruka/phonenumbers"

	"proposal_sync/platform/sanitize"
)

const defaultRegion = "BR"

// SplitDDD separates the area code (DDD) from a full Brazilian number.
// It returns false when the input is not a valid number carrying one.
func SplitDDD(input string) (ddd, local string, ok bool) {
	digits := sanitize.Digits(input)
	if len(digits) < 10 {
		return "", "", false
	}

	number, err := phonenumbers.Parse(digits, defaultRegion)
	if err != nil {
		return "", "", false
	}
	if !phonenumbers.IsValidNumberForRegion(number, defaultRegion) {
		return "", "", false
	}

	national := phonenumbers.GetNationalSignificantNumber(number)
	if len(national) != 10 && len(national) != 11 {
		return "", "", false
	}
	return national[:2], national[2:], true
}
