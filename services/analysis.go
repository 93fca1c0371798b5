package services

import (
	"math"
	"math/rand"
	"strings"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// Financial model constants.
const (
	depositFraction    = 0.25
	annualCostFraction = 0.10 // management, maintenance, voids
	expenseFraction    = 0.25 // share of rent lost to running costs
	stampDutyRate      = 0.03
	refurbPerRoom      = 15_000
	weeksPerMonth      = 4.33
	monthlyDebtRate    = 0.0025 // interest-only mortgage payment per month
)

// Area classification keyword sets, checked in priority order.
var (
	premiumKeywords = []string{"city centre", "center", "downtown", "waterfront", "marina", "cathedral", "university quarter", "georgian", "victorian quarter"}
	goodKeywords    = []string{"park", "garden", "hill", "green", "avenue", "grove", "gardens", "heights", "mount"}
	studentKeywords = []string{"university", "campus", "student", "college", "academic", "halls"}
	budgetKeywords  = []string{"industrial", "estate", "council", "housing", "development", "new build"}
)

// Analyzer derives investment metrics for a property. With a nil random
// source every band draw resolves to the band's lower bound, which keeps
// the output deterministic.
type Analyzer struct {
	cities *config.Cities
	rand   *rand.Rand
}

func NewAnalyzer(cities *config.Cities, r *rand.Rand) *Analyzer {
	return &Analyzer{cities: cities, rand: r}
}

// Analyze computes the full metric set. A non-positive price yields zeroed
// ratios rather than an error.
func (a *Analyzer) Analyze(price, bedrooms int, address string, areaSqm *int, city string) models.InvestmentAnalysis {
	monthlyRent := a.MonthlyRent(city, address, bedrooms)
	annualRent := monthlyRent * 12

	out := models.InvestmentAnalysis{
		MonthlyRent:        monthlyRent,
		AnnualRent:         annualRent,
		ProfitabilityScore: models.ProfitabilityLow,
		LHAWeekly:          a.cities.LHAWeekly(city),
	}

	if price > 0 {
		out.GrossYield = round2(float64(annualRent) / float64(price) * 100)
		costs := float64(annualRent) * annualCostFraction
		net := float64(annualRent) - costs
		deposit := float64(price) * depositFraction

		out.AnnualCosts = int(costs)
		out.NetAnnualIncome = int(net)
		out.DepositRequired = int(deposit)
		out.MortgageAmount = int(float64(price) * (1 - depositFraction))
		out.ROIOnDeposit = round2(net / deposit * 100)

		if areaSqm != nil && *areaSqm > 0 {
			ppsqm := price / *areaSqm
			out.PricePerSqm = &ppsqm
		}

		switch {
		case out.GrossYield >= 8 && out.ROIOnDeposit >= 15:
			out.ProfitabilityScore = models.ProfitabilityHigh
		case out.GrossYield >= 6 && out.ROIOnDeposit >= 10:
			out.ProfitabilityScore = models.ProfitabilityMedium
		}
	}

	a.applyLHAFigures(&out, price, bedrooms)
	return out
}

// MonthlyRent estimates the whole-property monthly rent from the city's
// per-room bands and the address classification.
func (a *Analyzer) MonthlyRent(city, address string, bedrooms int) int {
	bands := a.cities.Rates(city)
	addr := strings.ToLower(address)

	var perRoom int
	switch {
	case containsAny(addr, premiumKeywords):
		perRoom = a.draw(bands.Premium.Min, bands.Premium.Max)
	case containsAny(addr, goodKeywords):
		perRoom = a.draw(bands.Good.Min, bands.Good.Max)
	case containsAny(addr, studentKeywords):
		perRoom = a.draw(bands.Student.Min, bands.Student.Max)
	case containsAny(addr, budgetKeywords):
		perRoom = a.draw(bands.Budget.Min, bands.Budget.Max)
	case bedrooms >= 5:
		// Larger HMOs skew towards decent areas
		perRoom = a.draw(bands.Good.Min, bands.Good.Max)
	default:
		perRoom = a.draw(bands.Student.Min, bands.Good.Min)
	}

	return perRoom * bedrooms
}

// applyLHAFigures fills the benefit-benchmarked metrics: total cash
// invested, net yield against it, cashflow and debt cover.
func (a *Analyzer) applyLHAFigures(out *models.InvestmentAnalysis, price, bedrooms int) {
	lhaMonthly := float64(out.LHAWeekly) * weeksPerMonth * float64(bedrooms)
	lhaYearly := lhaMonthly * 12
	netRental := lhaYearly * (1 - expenseFraction)

	out.RefurbCost = refurbPerRoom * bedrooms
	totalInvested := float64(out.RefurbCost)

	if price > 0 {
		stamp := float64(price) * stampDutyRate
		out.StampDuty = int(stamp)
		totalInvested += float64(price) + stamp

		deposit := float64(price) * depositFraction
		invested := deposit + stamp + float64(out.RefurbCost)
		if netRental > 0 {
			out.PaybackYears = round2(invested / netRental)
		}

		monthlyDebt := float64(price) * (1 - depositFraction) * monthlyDebtRate
		out.MonthlyCashflow = round2(lhaMonthly*(1-expenseFraction) - monthlyDebt)
		if monthlyDebt > 0 {
			out.DSCR = round2(lhaMonthly * (1 - expenseFraction) / monthlyDebt)
		}
	}

	out.TotalInvested = int(totalInvested)
	if totalInvested > 0 {
		out.NetYield = round2(netRental / totalInvested * 100)
	}
}

func (a *Analyzer) draw(lo, hi int) int {
	if a.rand == nil || hi <= lo {
		return lo
	}
	return lo + a.rand.Intn(hi-lo+1)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
