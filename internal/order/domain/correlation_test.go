package domain

import (
	"testing"

	"github.com/apexgas/commerce/internal/intake"
	"github.com/stretchr/testify/require"
)

func TestCorrelationRoundTrip(t *testing.T) {
	info := intake.BusinessInfo{
		CompanyName:   "Lone Star Pulmonary",
		ContactName:   "Dana Reyes",
		PhoneNumber:   "(214) 400-3781",
		BusinessEmail: "dana@lonestarpulmonary.com",
		FacilityType:  "clinic",
	}

	encoded, err := EncodeCorrelation(info)
	require.NoError(t, err)

	decoded, err := DecodeCorrelation(encoded)
	require.NoError(t, err)
	require.Equal(t, info, decoded)
}

func TestDecodeCorrelationRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"not-json",
		`{"companyName":"Acme"}`,
		`{"companyName":"Acme","contactName":"Jo","phoneNumber":"call me","businessEmail":"jo@acme.com"}`,
	} {
		_, err := DecodeCorrelation(raw)
		require.ErrorIs(t, err, ErrCorrelationLost, raw)
	}
}

func TestCentsToValue(t *testing.T) {
	require.Equal(t, "99.99", CentsToValue(9999))
	require.Equal(t, "94.99", CentsToValue(9499))
	require.Equal(t, "100.00", CentsToValue(10000))
	require.Equal(t, "0.05", CentsToValue(5))
}

func TestValueToCents(t *testing.T) {
	for value, want := range map[string]int64{
		"99.99":  9999,
		"94.99":  9499,
		"100":    10000,
		"99.9":   9990,
		" 99.99": 9999,
	} {
		got, err := ValueToCents(value)
		require.NoError(t, err, value)
		require.Equal(t, want, got, value)
	}

	for _, value := range []string{"", "abc", "99.999", "-1.00", "99.x"} {
		_, err := ValueToCents(value)
		require.ErrorIs(t, err, ErrInvalidPrice, value)
	}
}
