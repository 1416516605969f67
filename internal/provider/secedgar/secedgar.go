// Package secedgar implements the SEC EDGAR provider: free, official,
// no API key beyond a compliant User-Agent header. It resolves tickers
// to CIKs, pulls XBRL company facts for financial periods, and pulls
// the filing index for entity_filings. Grounded on
// original_source/connectors/providers/sec_edgar.py.
package secedgar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const (
	tickersURL      = "https://www.sec.gov/files/company_tickers.json"
	companyFactsURL = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
	submissionsURL  = "https://data.sec.gov/submissions/CIK%s.json"
)

// incomeTags, balanceTags, cashflowTags are the US-GAAP XBRL tags
// extracted per statement, in priority order when a period reports
// more than one synonym for the same concept.
var (
	incomeTags = []string{
		"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax",
		"CostOfRevenue", "CostOfGoodsAndServicesSold",
		"GrossProfit", "OperatingIncomeLoss", "NetIncomeLoss",
		"EarningsPerShareBasic", "EarningsPerShareDiluted",
	}
	balanceTags = []string{
		"Assets", "Liabilities", "StockholdersEquity",
		"CashAndCashEquivalentsAtCarryingValue",
		"LongTermDebt", "LongTermDebtNoncurrent",
	}
	cashflowTags = []string{
		"NetCashProvidedByUsedInOperatingActivities",
		"CapitalExpenditure",
	}
)

var targetFilingForms = map[string]bool{
	"10-K": true, "10-Q": true, "8-K": true, "DEF 14A": true, "S-1": true,
}

// Provider is the SEC EDGAR provider.
type Provider struct {
	http      *resty.Client
	userAgent string
	repo      repository.Repository
	limiter   *rate.Limiter

	tickersURL      string
	companyFactsURL string
	submissionsURL  string
}

// New builds a Provider. userAgent must identify the caller per SEC's
// fair-access policy (e.g. "AppName contact@example.com"); an empty
// value makes IsConfigured() return false.
func New(http *resty.Client, userAgent string, repo repository.Repository) *Provider {
	return &Provider{
		http:            http,
		userAgent:       userAgent,
		repo:            repo,
		limiter:         rate.NewLimiter(rate.Every(120*time.Millisecond), 1),
		tickersURL:      tickersURL,
		companyFactsURL: companyFactsURL,
		submissionsURL:  submissionsURL,
	}
}

func (p *Provider) Name() string       { return "sec_edgar" }
func (p *Provider) IsConfigured() bool { return p.userAgent != "" }

func (p *Provider) throttledGet(ctx context.Context, url string, out any) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", p.userAgent).
		SetHeader("Accept", "application/json").
		SetResult(out).
		Get(url)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ResolveCIK satisfies internal/resolver.CIKResolver: it maps ticker to
// its zero-padded, 10-digit SEC CIK via the public company_tickers.json
// directory.
func (p *Provider) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	var data map[string]tickerEntry
	status, err := p.throttledGet(ctx, p.tickersURL, &data)
	if err != nil || status != 200 {
		return "", fmt.Errorf("sec company_tickers.json unavailable")
	}
	target := strings.ToUpper(ticker)
	for _, entry := range data {
		if strings.ToUpper(entry.Ticker) == target {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("no CIK found for ticker %s", ticker)
}

type xbrlUnitValue struct {
	End  string  `json:"end"`
	Val  float64 `json:"val"`
	Form string  `json:"form"`
}

type xbrlTag struct {
	Units map[string][]xbrlUnitValue `json:"units"`
}

type xbrlFacts struct {
	Facts struct {
		USGAAP map[string]xbrlTag `json:"us-gaap"`
	} `json:"facts"`
}

func (f xbrlFacts) tagValues(tag string) []xbrlUnitValue {
	t, ok := f.Facts.USGAAP[tag]
	if !ok {
		return nil
	}
	if v, ok := t.Units["USD"]; ok {
		return v
	}
	if v, ok := t.Units["USD/shares"]; ok {
		return v
	}
	return t.Units["shares"]
}

type xbrlPeriod struct {
	periodType string
	periodEnd  string
	fiscalYear int
	values     map[string]float64
}

func buildPeriodMap(facts xbrlFacts, tags []string) map[string]*xbrlPeriod {
	periods := map[string]*xbrlPeriod{}
	for _, tag := range tags {
		for _, entry := range filterFilingForms(facts.tagValues(tag)) {
			if entry.End == "" {
				continue
			}
			periodType := "quarterly"
			if entry.Form == "10-K" {
				periodType = "annual"
			}
			key := periodType + ":" + entry.End
			p, ok := periods[key]
			if !ok {
				fy := 0
				if len(entry.End) >= 4 {
					fy, _ = strconv.Atoi(entry.End[:4])
				}
				p = &xbrlPeriod{periodType: periodType, periodEnd: entry.End, fiscalYear: fy, values: map[string]float64{}}
				periods[key] = p
			}
			if _, already := p.values[tag]; !already {
				p.values[tag] = entry.Val
			}
		}
	}
	return periods
}

func filterFilingForms(entries []xbrlUnitValue) []xbrlUnitValue {
	var out []xbrlUnitValue
	for _, e := range entries {
		if e.Form == "10-K" || e.Form == "10-Q" {
			out = append(out, e)
		}
	}
	return out
}

func firstOf(values map[string]float64, tags ...string) *float64 {
	for _, tag := range tags {
		if v, ok := values[tag]; ok {
			out := v
			return &out
		}
	}
	return nil
}

func (p *Provider) storeFinancials(ctx context.Context, entity provider.Entity, facts xbrlFacts) int {
	incomeMap := buildPeriodMap(facts, incomeTags)
	balanceMap := buildPeriodMap(facts, balanceTags)
	cashflowMap := buildPeriodMap(facts, cashflowTags)

	allKeys := map[string]bool{}
	for k := range incomeMap {
		allKeys[k] = true
	}
	for k := range balanceMap {
		allKeys[k] = true
	}
	for k := range cashflowMap {
		allKeys[k] = true
	}

	stored := 0
	for key := range allKeys {
		inc := incomeMap[key]
		bal := balanceMap[key]
		cf := cashflowMap[key]
		meta := inc
		if meta == nil {
			meta = bal
		}
		if meta == nil {
			meta = cf
		}
		if meta == nil {
			continue
		}
		periodEnd, err := time.Parse("2006-01-02", meta.periodEnd)
		if err != nil {
			continue
		}

		period := model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodType(meta.periodType),
			PeriodEnd:      periodEnd,
			FiscalYear:     meta.fiscalYear,
			SourceProvider: p.Name(),
		}
		if inc != nil {
			period.Income = model.IncomeStatement{
				TotalRevenue:    firstOf(inc.values, "Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax"),
				CostOfRevenue:   firstOf(inc.values, "CostOfRevenue", "CostOfGoodsAndServicesSold"),
				GrossProfit:     firstOf(inc.values, "GrossProfit"),
				OperatingIncome: firstOf(inc.values, "OperatingIncomeLoss"),
				NetIncome:       firstOf(inc.values, "NetIncomeLoss"),
				EPSBasic:        firstOf(inc.values, "EarningsPerShareBasic"),
				EPSDiluted:      firstOf(inc.values, "EarningsPerShareDiluted"),
			}
		}
		if bal != nil {
			period.Balance = model.BalanceSheet{
				TotalAssets:      firstOf(bal.values, "Assets"),
				TotalLiabilities: firstOf(bal.values, "Liabilities"),
				TotalEquity:      firstOf(bal.values, "StockholdersEquity"),
				CashAndEquiv:     firstOf(bal.values, "CashAndCashEquivalentsAtCarryingValue"),
				TotalDebt:        firstOf(bal.values, "LongTermDebt", "LongTermDebtNoncurrent"),
			}
		}
		if cf != nil {
			period.CashFlow = model.CashFlowStatement{
				OperatingCashFlow:  firstOf(cf.values, "NetCashProvidedByUsedInOperatingActivities"),
				CapitalExpenditure: firstOf(cf.values, "CapitalExpenditure"),
			}
		}

		if _, err := p.repo.UpsertFinancialPeriod(ctx, period); err == nil {
			stored++
		}
	}
	return stored
}

type submissionsResponse struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocument []string `json:"primaryDocument"`
			PrimaryDocDesc  []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

func (p *Provider) storeFilings(ctx context.Context, cik string, entity provider.Entity) int {
	var data submissionsResponse
	status, err := p.throttledGet(ctx, fmt.Sprintf(p.submissionsURL, cik), &data)
	if err != nil || status != 200 {
		return 0
	}

	recent := data.Filings.Recent
	stored := 0
	cikTrimmed := strings.TrimLeft(cik, "0")
	limit := len(recent.Form)
	if limit > 100 {
		limit = 100
	}
	for i := 0; i < limit; i++ {
		form := recent.Form[i]
		if !targetFilingForms[form] {
			continue
		}
		acc := at(recent.AccessionNumber, i)
		if acc == "" {
			continue
		}
		filingDate, err := time.Parse("2006-01-02", at(recent.FilingDate, i))
		if err != nil {
			continue
		}
		doc := at(recent.PrimaryDocument, i)
		desc := at(recent.PrimaryDocDesc, i)
		if desc == "" {
			desc = form
		}
		accClean := strings.ReplaceAll(acc, "-", "")
		filingURL := ""
		if doc != "" {
			filingURL = fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s", cikTrimmed, accClean, doc)
		}

		err = p.repo.UpsertFiling(ctx, model.EntityFiling{
			Ticker:          entity.Ticker,
			CIK:             cik,
			AccessionNumber: acc,
			FilingType:      form,
			FilingDate:      filingDate,
			FilingURL:       filingURL,
			Description:     desc,
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// FetchCompanyData resolves entity's CIK (if not already known), then
// stores XBRL-derived financial periods and the recent filing index.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "all", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	cik := entity.CIK
	if cik == "" {
		resolved, err := p.ResolveCIK(ctx, entity.Ticker)
		if err != nil {
			return []provider.Result{{Provider: p.Name(), DataType: "all", Success: false, Error: "could not resolve CIK for " + entity.Ticker, FetchedAt: now}}
		}
		cik = resolved
	}

	var results []provider.Result

	var facts xbrlFacts
	status, err := p.throttledGet(ctx, fmt.Sprintf(p.companyFactsURL, cik), &facts)
	if err != nil || status != 200 {
		results = append(results, provider.Result{Provider: p.Name(), DataType: "financials", Success: false, Error: "companyfacts returned empty", FetchedAt: now})
	} else {
		finCount := p.storeFinancials(ctx, entity, facts)
		results = append(results, provider.Result{
			Provider: p.Name(), DataType: "financials", RecordsStored: finCount,
			Success: finCount > 0, FetchedAt: now,
		})
	}

	filingCount := p.storeFilings(ctx, cik, entity)
	results = append(results, provider.Result{
		Provider: p.Name(), DataType: "filings", RecordsStored: filingCount,
		Success: filingCount > 0, FetchedAt: now,
	})

	return results
}
