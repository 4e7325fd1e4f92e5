package services

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/detailsync/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var ErrCatalogInvalid = errors.New("invalid catalog")

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingAnnual  BillingPeriod = "annual"
)

// ParseBillingPeriod falls back to monthly billing for anything it does not recognize.
func ParseBillingPeriod(raw string) BillingPeriod {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "annual", "yearly", "year":
		return BillingAnnual
	default:
		return BillingMonthly
	}
}

type Feature struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Details     []string `yaml:"details" json:"details"`
}

type PricingTier struct {
	Plan         models.Plan `yaml:"plan"`
	MonthlyPrice int         `yaml:"monthly_price"`
	AnnualPrice  int         `yaml:"annual_price"`
	Highlighted  bool        `yaml:"highlighted"`
	Description  string      `yaml:"description"`
	Features     []string    `yaml:"features"`
}

type PriceQuote struct {
	Plan          models.Plan   `json:"plan"`
	Name          string        `json:"name"`
	Price         int           `json:"price"`
	Period        BillingPeriod `json:"period"`
	AnnualSavings int           `json:"annualSavings,omitempty"`
	Highlighted   bool          `json:"highlighted"`
	Description   string        `json:"description"`
	Features      []string      `json:"features"`
}

type Catalog struct {
	features []Feature
	tiers    []PricingTier
	language language.Tag
}

type catalogDocument struct {
	Features []Feature     `yaml:"features"`
	Tiers    []PricingTier `yaml:"tiers"`
}

func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var document catalogDocument
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}

	seenFeatures := make(map[string]struct{}, len(document.Features))
	for _, feature := range document.Features {
		if strings.TrimSpace(feature.ID) == "" || strings.TrimSpace(feature.Title) == "" {
			return nil, fmt.Errorf("%w: feature without id or title", ErrCatalogInvalid)
		}
		if _, exists := seenFeatures[feature.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrCatalogInvalid, feature.ID)
		}
		seenFeatures[feature.ID] = struct{}{}
	}

	seenPlans := make(map[models.Plan]struct{}, len(document.Tiers))
	for _, tier := range document.Tiers {
		if !tier.Plan.Valid() {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrCatalogInvalid, tier.Plan)
		}
		if _, exists := seenPlans[tier.Plan]; exists {
			return nil, fmt.Errorf("%w: duplicate plan %q", ErrCatalogInvalid, tier.Plan)
		}
		if tier.MonthlyPrice <= 0 || tier.AnnualPrice <= 0 {
			return nil, fmt.Errorf("%w: plan %q needs positive prices", ErrCatalogInvalid, tier.Plan)
		}
		seenPlans[tier.Plan] = struct{}{}
	}
	for _, plan := range models.Plans() {
		if _, exists := seenPlans[plan]; !exists {
			return nil, fmt.Errorf("%w: missing plan %q", ErrCatalogInvalid, plan)
		}
	}

	return &Catalog{
		features: document.Features,
		tiers:    document.Tiers,
		language: language.English,
	}, nil
}

func (catalog *Catalog) Features() []Feature {
	features := make([]Feature, len(catalog.features))
	copy(features, catalog.features)
	return features
}

func (catalog *Catalog) Tier(plan models.Plan) (PricingTier, bool) {
	for _, tier := range catalog.tiers {
		if tier.Plan == plan {
			return tier, true
		}
	}
	return PricingTier{}, false
}

// PlanName builds a fresh Caser per call; Casers are stateful.
func (catalog *Catalog) PlanName(plan models.Plan) string {
	return cases.Title(catalog.language).String(string(plan))
}

// Pricing quotes every tier for one billing period, in catalog order.
func (catalog *Catalog) Pricing(period BillingPeriod) []PriceQuote {
	quotes := make([]PriceQuote, 0, len(catalog.tiers))
	for _, tier := range catalog.tiers {
		quote := PriceQuote{
			Plan:        tier.Plan,
			Name:        catalog.PlanName(tier.Plan),
			Price:       tier.MonthlyPrice,
			Period:      BillingMonthly,
			Highlighted: tier.Highlighted,
			Description: tier.Description,
			Features:    append([]string(nil), tier.Features...),
		}
		if period == BillingAnnual {
			quote.Price = tier.AnnualPrice
			quote.Period = BillingAnnual
			quote.AnnualSavings = tier.MonthlyPrice*12 - tier.AnnualPrice
		}
		quotes = append(quotes, quote)
	}
	return quotes
}
