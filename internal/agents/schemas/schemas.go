package schemas

// Structured output payloads exchanged between pipeline stages. Every agent
// reply is validated against its declared schema before the next stage may
// consume it.

// AnalysisSummary is the canonical output of the search, fundamentals, risk
// and price analyst agents.
type AnalysisSummary struct {
	// Short text summary for this aspect of the analysis.
	Summary string `json:"summary"`
}

// SearchItem is one planned web search.
type SearchItem struct {
	// Reasoning for why this search is relevant.
	Reason string `json:"reason"`

	// The search term to feed into a web search.
	Query string `json:"query"`
}

// SearchPlan is the planner agent output.
type SearchPlan struct {
	Searches []SearchItem `json:"searches"`
}

// VerificationResult is the verifier agent output.
type VerificationResult struct {
	// Whether the report seems coherent and plausible.
	Verified bool `json:"verified"`

	// If not verified, the main issues or concerns.
	Issues string `json:"issues"`
}

// ReportData is the writer agent output.
type ReportData struct {
	// 2-3 sentence executive summary across price, fundamental and risk analysis.
	ShortSummary string `json:"short_summary"`

	// Full markdown report synthesizing prices, fundamentals and risk analyses.
	MarkdownReport string `json:"markdown_report"`

	// Suggested follow-up questions for further research.
	FollowUpQuestions []string `json:"follow_up_questions"`

	// Key metrics extracted from all agents (e.g. current_price, pe_ratio).
	KeyMetrics map[string]interface{} `json:"key_metrics,omitempty"`
}

// WriterInput assembles the three upstream analyses into the writer prompt.
// The writer receives this as a single JSON payload.
type WriterInput struct {
	PricesAnalysis       AnalysisSummary `json:"prices_analysis"`
	FundamentalsAnalysis AnalysisSummary `json:"fundamentals_analysis"`
	RiskAnalysis         AnalysisSummary `json:"risk_analysis"`
}

// ResearchReport is the terminal artifact of a research run. It aggregates
// every stage output and is what the result query returns verbatim.
type ResearchReport struct {
	SearchPlan           SearchPlan         `json:"search_plan"`
	Report               ReportData         `json:"report"`
	Verification         VerificationResult `json:"verification"`
	RiskAnalysis         AnalysisSummary    `json:"risk_analysis"`
	FundamentalsAnalysis AnalysisSummary    `json:"fundamentals_analysis"`
	PriceAnalysis        AnalysisSummary    `json:"price_analysis"`
	SearchResults        []AnalysisSummary  `json:"search_results"`
}

// Registered schema names.
const (
	AnalysisSummaryName    = "AnalysisSummary"
	SearchPlanName         = "FinancialSearchPlan"
	VerificationResultName = "VerificationResult"
	ReportDataName         = "FinancialReportData"
)
