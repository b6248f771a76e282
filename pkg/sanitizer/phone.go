package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion    = "EG"
	egyptCountryCode = 20
)

// NormalizePhone turns any Egyptian notation (+20 10..., 0020..., 010...)
// into the national form 01XXXXXXXXX. Foreign or unparsable numbers are
// returned trimmed.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, defaultRegion)
	if err != nil || parsed.GetCountryCode() != egyptCountryCode {
		return phone
	}

	return "0" + phonenumbers.GetNationalSignificantNumber(parsed)
}
