// Package rules loads and validates the declarative classification rules that
// drive double-entry annotation: the category list, account aliases and the
// description/bank-category/transfer mappings.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default labels used when the rules file leaves settings out.
const (
	DefaultUncategorizedLabel = "Нет категории"
	DefaultIgnoreLabel        = "Не учитывать"
	DefaultCurrency           = "RUB"
	DefaultAccountName        = "Основной счёт"
	DefaultIncomeAccount      = "доходы"
	DefaultExpenseAccount     = "расходы"
)

// ServiceAccounts names the synthetic counter-accounts used as the non-real
// leg of a double-entry record.
type ServiceAccounts struct {
	Income  string `yaml:"income"`
	Expense string `yaml:"expense"`
}

// Settings holds the general knobs of a rules file.
type Settings struct {
	UncategorizedLabel string          `yaml:"uncategorized_label"`
	IgnoreLabel        string          `yaml:"ignore_label"`
	DefaultCurrency    string          `yaml:"default_currency"`
	DefaultAccount     string          `yaml:"default_account"`
	ServiceAccounts    ServiceAccounts `yaml:"service_accounts"`
}

// Config is a fully loaded and validated rules file. It is immutable for the
// duration of a conversion run and safe to share between runs.
type Config struct {
	Version  string   `yaml:"version"`
	Settings Settings `yaml:"settings"`

	// Categories is the closed set of categories; every category referenced
	// by a mapping below must appear here.
	Categories []string `yaml:"categories"`

	BankCategoryMapping      map[string]BankCategoryRule `yaml:"bank_category_mapping"`
	DescriptionMapping       OrderedMapping              `yaml:"description_mapping"`
	SubcategoryMapping       OrderedMapping              `yaml:"subcategory_mapping"`
	IncomeDescriptionMapping OrderedMapping              `yaml:"income_description_mapping"`
	AccountMapping           map[string]string           `yaml:"account_mapping"`
	TransferAccountMapping   OrderedMapping              `yaml:"transfer_account_mapping"`
	CategoryColors           map[string]string           `yaml:"category_colors"`
}

// ValidationError reports a mapping that references a category absent from
// the category list.
type ValidationError struct {
	Mapping  string
	Source   string
	Category string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: '%s' (from '%s') is not in the categories list",
		e.Mapping, e.Category, e.Source)
}

// Load reads a rules file from disk, applies defaults and validates the
// cross-references. A mapping referencing an unknown category fails the load;
// the rule engine never re-checks this at classification time.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- rules file path is user provided
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates rules from raw YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing rules file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.UncategorizedLabel == "" {
		c.Settings.UncategorizedLabel = DefaultUncategorizedLabel
	}
	if c.Settings.IgnoreLabel == "" {
		c.Settings.IgnoreLabel = DefaultIgnoreLabel
	}
	if c.Settings.DefaultCurrency == "" {
		c.Settings.DefaultCurrency = DefaultCurrency
	}
	if c.Settings.DefaultAccount == "" {
		c.Settings.DefaultAccount = DefaultAccountName
	}
	if c.Settings.ServiceAccounts.Income == "" {
		c.Settings.ServiceAccounts.Income = DefaultIncomeAccount
	}
	if c.Settings.ServiceAccounts.Expense == "" {
		c.Settings.ServiceAccounts.Expense = DefaultExpenseAccount
	}
}

// validate checks that every category referenced by a mapping appears in the
// category list.
func (c *Config) validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("rules file must define at least one category")
	}

	categorySet := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		categorySet[cat] = struct{}{}
	}

	for source, rule := range c.BankCategoryMapping {
		if _, ok := categorySet[rule.Category]; !ok {
			return &ValidationError{Mapping: "bank_category_mapping", Source: source, Category: rule.Category}
		}
	}
	for _, e := range c.DescriptionMapping.Entries() {
		if _, ok := categorySet[e.Value]; !ok {
			return &ValidationError{Mapping: "description_mapping", Source: e.Key, Category: e.Value}
		}
	}
	for _, e := range c.IncomeDescriptionMapping.Entries() {
		if _, ok := categorySet[e.Value]; !ok {
			return &ValidationError{Mapping: "income_description_mapping", Source: e.Key, Category: e.Value}
		}
	}
	for category := range c.CategoryColors {
		if _, ok := categorySet[category]; !ok {
			return &ValidationError{Mapping: "category_colors", Source: category, Category: category}
		}
	}
	return nil
}
