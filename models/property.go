package models

// SearchQuery holds the validated user search parameters for one scrape run.
type SearchQuery struct {
	City        string `json:"city"`
	MinBedrooms int    `json:"min_bedrooms"`
	MaxPrice    int    `json:"max_price"`
	Keywords    string `json:"keywords"`
}

// InvestmentAnalysis is recomputed from price/bedrooms/address/city at
// emission time. Monetary fields are whole pounds, ratios are percentages
// rounded to two decimals.
type InvestmentAnalysis struct {
	MonthlyRent        int     `json:"monthly_rent"`
	AnnualRent         int     `json:"annual_rent"`
	GrossYield         float64 `json:"gross_yield"`
	DepositRequired    int     `json:"deposit_required"`
	MortgageAmount     int     `json:"mortgage_amount"`
	AnnualCosts        int     `json:"annual_costs"`
	NetAnnualIncome    int     `json:"net_annual_income"`
	ROIOnDeposit       float64 `json:"roi_on_deposit"`
	PricePerSqm        *int    `json:"price_per_sqm,omitempty"`
	ProfitabilityScore string  `json:"profitability_score"`

	// LHA-benchmarked figures
	LHAWeekly       int     `json:"lha_weekly"`
	StampDuty       int     `json:"stamp_duty"`
	RefurbCost      int     `json:"refurb_cost"`
	TotalInvested   int     `json:"total_invested"`
	NetYield        float64 `json:"net_yield"`
	MonthlyCashflow float64 `json:"monthly_cashflow"`
	DSCR            float64 `json:"dscr"`
	PaybackYears    float64 `json:"payback_years"`
}

// Profitability scores
const (
	ProfitabilityLow    = "low"
	ProfitabilityMedium = "medium"
	ProfitabilityHigh   = "high"
)

// Property is the unit of output for a scrape run. The analysis fields are
// flattened into the same JSON object, matching the public API shape.
type Property struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Price       int    `json:"price"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   *int   `json:"bathrooms,omitempty"`
	AreaSqm     *int   `json:"area_sqm,omitempty"`
	BuiltYear   *int   `json:"built_year,omitempty"`
	Description string `json:"description"`
	PropertyURL string `json:"property_url"`
	ImageURL    string `json:"image_url"`
	Synthetic   bool   `json:"synthetic,omitempty"`

	InvestmentAnalysis
}
