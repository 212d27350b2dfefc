package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validFields() Fields {
	return Fields{
		CompanyName:   "Lone Star Pulmonary",
		ContactName:   "Dana Reyes",
		PhoneNumber:   "(214) 400-3781",
		BusinessEmail: "dana@lonestarpulmonary.com",
		FacilityType:  "clinic",
	}
}

func TestValidate(t *testing.T) {
	info, err := Validate(validFields())
	require.NoError(t, err)
	require.Equal(t, "Lone Star Pulmonary", info.CompanyName)
	require.Equal(t, "(214) 400-3781", info.PhoneNumber)
}

func TestValidateTrimsWhitespace(t *testing.T) {
	f := validFields()
	f.CompanyName = "  Lone Star Pulmonary  "
	f.BusinessEmail = " dana@lonestarpulmonary.com "

	info, err := Validate(f)
	require.NoError(t, err)
	require.Equal(t, "Lone Star Pulmonary", info.CompanyName)
	require.Equal(t, "dana@lonestarpulmonary.com", info.BusinessEmail)
}

func TestValidateMissingFields(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Fields)
	}{
		{"companyName", func(f *Fields) { f.CompanyName = "" }},
		{"contactName", func(f *Fields) { f.ContactName = "   " }},
		{"phoneNumber", func(f *Fields) { f.PhoneNumber = "" }},
		{"businessEmail", func(f *Fields) { f.BusinessEmail = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := validFields()
			tc.mutate(&f)

			_, err := Validate(f)
			require.ErrorIs(t, err, ErrMissingField)
			require.Contains(t, err.Error(), tc.name)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{
		"dana@lonestarpulmonary.com",
		"dana+orders@clinic.co",
		"a@b.io",
	} {
		f := validFields()
		f.BusinessEmail = email
		_, err := Validate(f)
		require.NoError(t, err, email)
	}

	for _, email := range []string{
		"dana",
		"dana@clinic",
		"dana @clinic.com",
		"@clinic.com",
		"dana@",
	} {
		f := validFields()
		f.BusinessEmail = email
		_, err := Validate(f)
		require.ErrorIs(t, err, ErrInvalidEmail, email)
	}
}

func TestValidatePhone(t *testing.T) {
	for _, phone := range []string{
		"(214) 400-3781",
		"214-400-3781",
		"2144003781",
		"214 400 3781",
	} {
		f := validFields()
		f.PhoneNumber = phone
		_, err := Validate(f)
		require.NoError(t, err, phone)
	}

	for _, phone := range []string{
		"+1 214 400 3781",
		"214.400.3781",
		"call me",
	} {
		f := validFields()
		f.PhoneNumber = phone
		_, err := Validate(f)
		require.ErrorIs(t, err, ErrInvalidPhone, phone)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	info, err := Validate(validFields())
	require.NoError(t, err)
	require.NoError(t, Verify(info))

	info.BusinessEmail = ""
	require.True(t, errors.Is(Verify(info), ErrMissingField))
}
