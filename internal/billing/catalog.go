package billing

import (
	"fmt"

	"github.com/aweme-labs/aweme-backend/pkg/config"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Plan keys accepted by the checkout endpoint.
const (
	PlanKeyBasicMonthly = "BASIC_MONTHLY"
	PlanKeyProMonthly   = "PRO_MONTHLY"
)

// Plan is one catalog entry: a provider price id mapped to the internal
// plan name and the credits granted per billing cycle.
type Plan struct {
	Key          string          `json:"key"`
	DisplayName  string          `json:"display_name"`
	PriceID      string          `json:"-"`
	Credits      int             `json:"credits"`
	MonthlyPrice decimal.Decimal `json:"monthly_price_usd"`
}

// Catalog is the immutable price-id -> plan table, loaded once from
// configuration and passed explicitly to whoever needs to resolve plans.
type Catalog struct {
	byPriceID map[string]Plan
	byKey     map[string]Plan
	ordered   []Plan
}

// NewCatalog builds the catalog from configuration. Display names are an
// explicit table here rather than derived from key string surgery.
// Validation errors are aggregated so a boot failure reports every
// misconfigured plan at once.
func NewCatalog(cfg config.BillingConfig) (Catalog, error) {
	entries := []struct {
		key         string
		displayName string
		priceID     string
		credits     int
		monthlyUSD  string
	}{
		{PlanKeyBasicMonthly, "BASIC", cfg.BasicPriceID, cfg.BasicCredits, cfg.BasicMonthlyUSD},
		{PlanKeyProMonthly, "PRO", cfg.ProPriceID, cfg.ProCredits, cfg.ProMonthlyUSD},
	}

	catalog := Catalog{
		byPriceID: make(map[string]Plan, len(entries)),
		byKey:     make(map[string]Plan, len(entries)),
	}

	var errs error
	for _, entry := range entries {
		var entryErr error
		if entry.priceID == "" {
			entryErr = multierr.Append(entryErr, fmt.Errorf("plan %s: price id is required", entry.key))
		}
		if entry.credits <= 0 {
			entryErr = multierr.Append(entryErr, fmt.Errorf("plan %s: credit grant must be positive", entry.key))
		}
		price, err := decimal.NewFromString(entry.monthlyUSD)
		if err != nil {
			entryErr = multierr.Append(entryErr, fmt.Errorf("plan %s: invalid monthly price %q: %w", entry.key, entry.monthlyUSD, err))
		}
		if _, exists := catalog.byPriceID[entry.priceID]; entry.priceID != "" && exists {
			entryErr = multierr.Append(entryErr, fmt.Errorf("plan %s: price id %s already mapped", entry.key, entry.priceID))
		}
		if entryErr != nil {
			errs = multierr.Append(errs, entryErr)
			continue
		}

		plan := Plan{
			Key:          entry.key,
			DisplayName:  entry.displayName,
			PriceID:      entry.priceID,
			Credits:      entry.credits,
			MonthlyPrice: price,
		}
		catalog.byPriceID[plan.PriceID] = plan
		catalog.byKey[plan.Key] = plan
		catalog.ordered = append(catalog.ordered, plan)
	}
	if errs != nil {
		return Catalog{}, fmt.Errorf("billing config: %w", errs)
	}

	return catalog, nil
}

// ResolvePlan maps a provider price id to its catalog entry.
func (c Catalog) ResolvePlan(priceID string) (Plan, error) {
	plan, ok := c.byPriceID[priceID]
	if !ok {
		return Plan{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown plan for price id %s", priceID))
	}
	return plan, nil
}

// PlanByKey looks up a plan by its internal key, e.g. from a checkout request.
func (c Catalog) PlanByKey(key string) (Plan, error) {
	plan, ok := c.byKey[key]
	if !ok {
		return Plan{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown plan type %q", key))
	}
	return plan, nil
}

// Plans returns the catalog entries in configuration order.
func (c Catalog) Plans() []Plan {
	out := make([]Plan, len(c.ordered))
	copy(out, c.ordered)
	return out
}
