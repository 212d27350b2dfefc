package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/apexgas/commerce/internal/intake"
)

// EncodeCorrelation serializes buyer info into the provider's
// free-text correlation field.
func EncodeCorrelation(info intake.BusinessInfo) (string, error) {
	raw, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeCorrelation parses the correlation field echoed back by the
// provider and re-validates it. Anything that does not decode into
// valid buyer info is treated as lost correlation, not guessed at.
func DecodeCorrelation(raw string) (intake.BusinessInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return intake.BusinessInfo{}, fmt.Errorf("%w: empty", ErrCorrelationLost)
	}

	var info intake.BusinessInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return intake.BusinessInfo{}, fmt.Errorf("%w: %v", ErrCorrelationLost, err)
	}
	if err := intake.Verify(info); err != nil {
		return intake.BusinessInfo{}, fmt.Errorf("%w: %v", ErrCorrelationLost, err)
	}
	return info, nil
}

// CentsToValue renders cents as the provider's decimal string, e.g.
// 9999 -> "99.99".
func CentsToValue(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ValueToCents parses a provider decimal string back into cents.
func ValueToCents(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	whole := value
	frac := "0"
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole = value[:i]
		frac = value[i+1:]
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}
	if len(frac) == 1 {
		frac += "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}

	return dollars*100 + cents, nil
}
