package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ErrUnknownTier = errors.New("unknown_tier")

// Tier codes offered to buyers.
const (
	TierSingle       = "single"
	TierSubscription = "subscription"
)

// Tier is one purchasable price entry.
type Tier struct {
	Code            string `mapstructure:"code" json:"code"`
	Description     string `mapstructure:"description" json:"description"`
	AmountCents     int64  `mapstructure:"amount_cents" json:"amount_cents"`
	Currency        string `mapstructure:"currency" json:"currency"`
	BillingInterval string `mapstructure:"billing_interval" json:"billing_interval,omitempty"`
	StripePriceID   string `mapstructure:"stripe_price_id" json:"-"`
}

// Recurring reports whether the tier bills on a cycle.
func (t Tier) Recurring() bool {
	return t.BillingInterval != ""
}

// Catalog is the full set of offered tiers.
type Catalog struct {
	Tiers []Tier `mapstructure:"tiers"`
}

// Defaults returns the built-in catalog used when no file overrides it.
func Defaults() Catalog {
	return Catalog{
		Tiers: []Tier{
			{
				Code:        TierSingle,
				Description: "Single Purchase",
				AmountCents: 9999,
				Currency:    "USD",
			},
			{
				Code:            TierSubscription,
				Description:     "Annual Subscription",
				AmountCents:     9499,
				Currency:        "USD",
				BillingInterval: "year",
			},
		},
	}
}

// Holder keeps the active catalog and swaps it atomically on reload.
type Holder struct {
	current atomic.Value
	log     *zap.Logger
}

// NewHolder loads the catalog, optionally from a file, and watches the
// file for changes.
func NewHolder(path string, log *zap.Logger) (*Holder, error) {
	h := &Holder{log: log}

	catalog := Defaults()
	if strings.TrimSpace(path) != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		loaded, err := decode(v)
		if err != nil {
			return nil, err
		}
		catalog = loaded

		v.OnConfigChange(func(_ fsnotify.Event) {
			reloaded, err := decode(v)
			if err != nil {
				h.log.Warn("catalog reload rejected", zap.Error(err))
				return
			}
			h.current.Store(reloaded)
			h.log.Info("catalog reloaded", zap.Int("tiers", len(reloaded.Tiers)))
		})
		v.WatchConfig()
	}

	if err := validate(catalog); err != nil {
		return nil, err
	}
	h.current.Store(catalog)
	return h, nil
}

// Current returns the active catalog snapshot.
func (h *Holder) Current() Catalog {
	return h.current.Load().(Catalog)
}

// Resolve returns the tier for the given code.
func (h *Holder) Resolve(code string) (Tier, error) {
	code = strings.TrimSpace(strings.ToLower(code))
	for _, tier := range h.Current().Tiers {
		if tier.Code == code {
			return tier, nil
		}
	}
	return Tier{}, fmt.Errorf("%w: %s", ErrUnknownTier, code)
}

func decode(v *viper.Viper) (Catalog, error) {
	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate(catalog); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func validate(c Catalog) error {
	if len(c.Tiers) == 0 {
		return errors.New("catalog has no tiers")
	}
	seen := make(map[string]struct{}, len(c.Tiers))
	for _, tier := range c.Tiers {
		if strings.TrimSpace(tier.Code) == "" {
			return errors.New("catalog tier missing code")
		}
		if _, dup := seen[tier.Code]; dup {
			return fmt.Errorf("duplicate catalog tier %q", tier.Code)
		}
		seen[tier.Code] = struct{}{}
		if tier.AmountCents <= 0 {
			return fmt.Errorf("catalog tier %q has non-positive amount", tier.Code)
		}
		if strings.TrimSpace(tier.Currency) == "" {
			return fmt.Errorf("catalog tier %q missing currency", tier.Code)
		}
	}
	return nil
}
