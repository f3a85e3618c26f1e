package agents

import "minerva/internal/agents/schemas"

// Role enumerates the pipeline agent specializations.
type Role string

const (
	RolePlanner      Role = "planner"
	RoleSearch       Role = "search"
	RoleFundamentals Role = "fundamentals"
	RoleRisk         Role = "risk"
	RoleVerifier     Role = "verifier"
	RoleWriter       Role = "writer"
	RoleAnalyst      Role = "analyst"
)

// AllRoles lists every role the pipeline bootstraps, in bootstrap order.
var AllRoles = []Role{
	RoleAnalyst,
	RoleFundamentals,
	RolePlanner,
	RoleRisk,
	RoleSearch,
	RoleVerifier,
	RoleWriter,
}

// PromptServer selects which prompt mount serves a role's instructions.
type PromptServer string

const (
	PromptServerFinancials PromptServer = "financials"
	PromptServerPrices     PromptServer = "prices"
)

// Tool identifies a platform tool grant.
type Tool string

const (
	ToolWebSearch Tool = "web_search"
)

// RoleConfig captures the static platform settings for one agent role.
// Immutable for the process lifetime.
type RoleConfig struct {
	Role           Role
	Model          string
	Name           string
	Description    string
	PromptServer   PromptServer
	PromptName     string
	ResponseSchema string
	Temperature    float64
	MaxTokens      int
	Tools          []Tool
}

const (
	defaultModel     = "mistral-medium-2505"
	defaultMaxTokens = 2048
)

// DefaultRoleConfigs is the static per-role configuration table, constructed
// once and passed by reference into the workflow deps. Never mutated.
var DefaultRoleConfigs = map[Role]RoleConfig{
	RolePlanner: {
		Role:           RolePlanner,
		Model:          defaultModel,
		Name:           "FinancialPlannerAgent",
		Description:    "Agent to plan searches",
		PromptServer:   PromptServerFinancials,
		PromptName:     "planner_prompt",
		ResponseSchema: schemas.SearchPlanName,
		Temperature:    0.3,
		MaxTokens:      defaultMaxTokens,
	},
	RoleSearch: {
		Role:           RoleSearch,
		Model:          defaultModel,
		Name:           "FinancialSearchAgent",
		Description:    "Agent to perform web searches",
		PromptServer:   PromptServerFinancials,
		PromptName:     "search_prompt",
		ResponseSchema: schemas.AnalysisSummaryName,
		Temperature:    0.1,
		MaxTokens:      defaultMaxTokens,
		Tools:          []Tool{ToolWebSearch},
	},
	RoleFundamentals: {
		Role:           RoleFundamentals,
		Model:          defaultModel,
		Name:           "FundamentalsAnalystAgent",
		Description:    "Agent to analyze company fundamentals",
		PromptServer:   PromptServerFinancials,
		PromptName:     "financials_prompt",
		ResponseSchema: schemas.AnalysisSummaryName,
		MaxTokens:      defaultMaxTokens,
	},
	RoleRisk: {
		Role:           RoleRisk,
		Model:          defaultModel,
		Name:           "RiskAnalystAgent",
		Description:    "Agent to analyze risks",
		PromptServer:   PromptServerFinancials,
		PromptName:     "risk_prompt",
		ResponseSchema: schemas.AnalysisSummaryName,
		Temperature:    0.1,
		MaxTokens:      defaultMaxTokens,
	},
	RoleVerifier: {
		Role:           RoleVerifier,
		Model:          defaultModel,
		Name:           "VerificationAgent",
		Description:    "Agent to verify facts",
		PromptServer:   PromptServerFinancials,
		PromptName:     "verifier_prompt",
		ResponseSchema: schemas.VerificationResultName,
		MaxTokens:      defaultMaxTokens,
	},
	RoleWriter: {
		Role:           RoleWriter,
		Model:          defaultModel,
		Name:           "FinancialWriterAgent",
		Description:    "Agent to write reports",
		PromptServer:   PromptServerFinancials,
		PromptName:     "writer_prompt",
		ResponseSchema: schemas.ReportDataName,
		Temperature:    0,
		MaxTokens:      defaultMaxTokens,
	},
	RoleAnalyst: {
		Role:           RoleAnalyst,
		Model:          "mistral-medium-latest",
		Name:           "price-analyst-agent",
		Description:    "Analyzes stock prices using real-time data",
		PromptServer:   PromptServerPrices,
		PromptName:     "price_analyst_prompt",
		ResponseSchema: schemas.AnalysisSummaryName,
		Temperature:    0.7,
		MaxTokens:      1000,
	},
}
