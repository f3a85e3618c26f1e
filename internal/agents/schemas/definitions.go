package schemas

// Hand-written JSON schema descriptions for each registered payload. These are
// the shapes sent to the platform; additionalProperties:false is applied at
// ResponseFormat time rather than baked in here.

var analysisSummarySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "Short text summary for this aspect of the analysis",
		},
	},
	"required": []interface{}{"summary"},
}

var searchItemSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"reason": map[string]interface{}{
			"type":        "string",
			"description": "Reasoning for why this search is relevant",
		},
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The search term to feed into a web search",
		},
	},
	"required": []interface{}{"reason", "query"},
}

var searchPlanSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"searches": map[string]interface{}{
			"type":        "array",
			"description": "A list of searches to perform",
			"items":       searchItemSchema,
		},
	},
	"required": []interface{}{"searches"},
}

var verificationResultSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"verified": map[string]interface{}{
			"type":        "boolean",
			"description": "Whether the report seems coherent and plausible",
		},
		"issues": map[string]interface{}{
			"type":        "string",
			"description": "If not verified, the main issues or concerns",
		},
	},
	"required": []interface{}{"verified", "issues"},
}

var reportDataSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"short_summary": map[string]interface{}{
			"type":        "string",
			"description": "Executive summary highlighting key insights across price, fundamental and risk analysis",
		},
		"markdown_report": map[string]interface{}{
			"type":        "string",
			"description": "The full markdown report synthesizing prices, fundamentals and risk analyses",
		},
		"follow_up_questions": map[string]interface{}{
			"type":        "array",
			"description": "Suggested follow-up questions for further research",
			"items": map[string]interface{}{
				"type": "string",
			},
		},
		"key_metrics": map[string]interface{}{
			"type":        "object",
			"description": "Key metrics extracted from all agents (e.g. current_price, pe_ratio, volatility)",
		},
	},
	"required": []interface{}{"short_summary", "markdown_report", "follow_up_questions"},
}
