package categorizer

import (
	"tbank-xlsx/internal/models"
	"tbank-xlsx/internal/rules"
)

// Resolution is the outcome of one category resolver: a category and, when
// the source mapping carries one, a subcategory.
type Resolution struct {
	Category    string
	Subcategory string
}

// CategoryResolver is one tier of the expense category cascade. Resolvers are
// pure: they read the operation and the rules and either yield a resolution
// or decline, letting the next tier run.
type CategoryResolver interface {
	// Resolve attempts to categorize the operation. The boolean reports
	// whether this tier produced a result.
	Resolve(op *models.Operation, cfg *rules.Config) (Resolution, bool)

	// Name identifies the resolver in logs.
	Name() string
}

// expenseResolvers returns the cascade in strict priority order: exact
// description match, description substring match, bank-category mapping,
// uncategorized fallback. First hit wins.
func expenseResolvers() []CategoryResolver {
	return []CategoryResolver{
		exactDescriptionResolver{},
		substringDescriptionResolver{},
		bankCategoryResolver{},
		fallbackResolver{},
	}
}

// exactDescriptionResolver matches the full description against the
// free-text mapping keys.
type exactDescriptionResolver struct{}

func (exactDescriptionResolver) Name() string { return "ExactDescription" }

func (exactDescriptionResolver) Resolve(op *models.Operation, cfg *rules.Config) (Resolution, bool) {
	if category, ok := cfg.DescriptionMapping.Get(op.Description); ok {
		return Resolution{Category: category}, true
	}
	return Resolution{}, false
}

// substringDescriptionResolver matches free-text mapping keys as
// case-insensitive substrings of the description, in mapping-defined order.
type substringDescriptionResolver struct{}

func (substringDescriptionResolver) Name() string { return "SubstringDescription" }

func (substringDescriptionResolver) Resolve(op *models.Operation, cfg *rules.Config) (Resolution, bool) {
	if category, ok := cfg.DescriptionMapping.Match(op.Description); ok {
		return Resolution{Category: category}, true
	}
	return Resolution{}, false
}

// bankCategoryResolver maps the bank-assigned category through the
// bank-category mapping; the mapped rule may carry its own subcategory.
type bankCategoryResolver struct{}

func (bankCategoryResolver) Name() string { return "BankCategory" }

func (bankCategoryResolver) Resolve(op *models.Operation, cfg *rules.Config) (Resolution, bool) {
	if op.BankCategory == "" {
		return Resolution{}, false
	}
	rule, ok := cfg.BankCategoryMapping[op.BankCategory]
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Category: rule.Category, Subcategory: rule.Subcategory}, true
}

// fallbackResolver terminates the cascade with the configured uncategorized
// label. It always resolves.
type fallbackResolver struct{}

func (fallbackResolver) Name() string { return "Fallback" }

func (fallbackResolver) Resolve(op *models.Operation, cfg *rules.Config) (Resolution, bool) {
	return Resolution{Category: cfg.Settings.UncategorizedLabel}, true
}
