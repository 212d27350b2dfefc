package intake

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMissingField = errors.New("missing_field")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidPhone = errors.New("invalid_phone")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9\s\-()]+$`)
)

// Fields is the raw buyer-supplied form data before validation.
type Fields struct {
	CompanyName         string `json:"companyName"`
	ContactName         string `json:"contactName"`
	PhoneNumber         string `json:"phoneNumber"`
	BusinessEmail       string `json:"businessEmail"`
	FacilityType        string `json:"facilityType"`
	Message             string `json:"message"`
	HasSpecialEquipment bool   `json:"hasSpecialEquipment"`
}

// BusinessInfo is validated buyer information. It rides along with the
// payment as correlation data and is echoed back by the provider.
type BusinessInfo struct {
	CompanyName         string `json:"companyName"`
	ContactName         string `json:"contactName"`
	PhoneNumber         string `json:"phoneNumber"`
	BusinessEmail       string `json:"businessEmail"`
	FacilityType        string `json:"facilityType,omitempty"`
	HasSpecialEquipment bool   `json:"hasSpecialEquipment,omitempty"`
}

// DeliveryAddress is the optional drop-off location for cylinder orders.
type DeliveryAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
}

// Validate checks the raw form fields and returns the canonical
// BusinessInfo. All four core fields are required; email and phone are
// shape-checked after trimming.
func Validate(f Fields) (BusinessInfo, error) {
	info := BusinessInfo{
		CompanyName:         strings.TrimSpace(f.CompanyName),
		ContactName:         strings.TrimSpace(f.ContactName),
		PhoneNumber:         strings.TrimSpace(f.PhoneNumber),
		BusinessEmail:       strings.TrimSpace(f.BusinessEmail),
		FacilityType:        strings.TrimSpace(f.FacilityType),
		HasSpecialEquipment: f.HasSpecialEquipment,
	}
	if err := Verify(info); err != nil {
		return BusinessInfo{}, err
	}
	return info, nil
}

// Verify re-checks already-built BusinessInfo. Used when the data comes
// back from a payment provider and must still hold.
func Verify(info BusinessInfo) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"companyName", info.CompanyName},
		{"contactName", info.ContactName},
		{"phoneNumber", info.PhoneNumber},
		{"businessEmail", info.BusinessEmail},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}

	if !emailPattern.MatchString(info.BusinessEmail) {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, info.BusinessEmail)
	}
	if !phonePattern.MatchString(info.PhoneNumber) {
		return fmt.Errorf("%w: %s", ErrInvalidPhone, info.PhoneNumber)
	}
	return nil
}
