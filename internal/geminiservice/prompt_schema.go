package geminiservice

/* =================================================================================
						GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format the report
	produced by the forced function call in report mode.
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
// It maps to Google's generative-ai-go/genai Schema type.
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "NUMBER").
	Type string `json:"type"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	// We use a pointer (*GeminiSchema) to allow recursive structures.
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`
}

// statusEnum is shared by the calorie and macro blocks.
var statusEnum = []string{"under_target", "on_target", "over_target"}

/*
ReportSchema describes the exact JSON structure of the nutrition report.
Schema ownership lives with the report consumers; this literal exists so the
forced function call can be declared to the model.
*/
var ReportSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"summary": {
			Type:        "STRING",
			Description: "2-3 sentence overview of the user's progress and current standing.",
		},
		"weight_trend": {
			Type:        "OBJECT",
			Description: "Weight trajectory over the analyzed period.",
			Properties: map[string]*GeminiSchema{
				"direction": {
					Type: "STRING",
					Enum: []string{"losing", "maintaining", "gaining"},
				},
				"weekly_series": {
					Type:        "ARRAY",
					Description: "Average weight per week, oldest first.",
					Items:       &GeminiSchema{Type: "NUMBER"},
				},
				"change_kg": {
					Type:        "NUMBER",
					Description: "Total change over the period, negative for loss.",
				},
			},
			Required: []string{"direction", "weekly_series"},
		},
		"calorie_balance": {
			Type: "OBJECT",
			Properties: map[string]*GeminiSchema{
				"average_daily": {Type: "NUMBER"},
				"target_daily":  {Type: "NUMBER"},
				"status": {
					Type: "STRING",
					Enum: statusEnum,
				},
			},
			Required: []string{"average_daily", "status"},
		},
		"macro_breakdown": {
			Type:        "OBJECT",
			Description: "Protein/carbs/fat intake versus targets.",
			Properties: map[string]*GeminiSchema{
				"protein_status": {Type: "STRING", Enum: statusEnum},
				"carbs_status":   {Type: "STRING", Enum: statusEnum},
				"fat_status":     {Type: "STRING", Enum: statusEnum},
			},
			Required: []string{"protein_status", "carbs_status", "fat_status"},
		},
		"insights": {
			Type:        "ARRAY",
			Description: "Notable patterns found in the data, one sentence each.",
			Items:       &GeminiSchema{Type: "STRING"},
		},
		"actions": {
			Type:        "ARRAY",
			Description: "Concrete next steps, ordered by impact.",
			Items:       &GeminiSchema{Type: "STRING"},
		},
		"goal_prediction": {
			Type:        "OBJECT",
			Properties: map[string]*GeminiSchema{
				"on_track":       {Type: "BOOLEAN"},
				"projected_date": {Type: "STRING", Description: "ISO date the goal is projected to be reached, empty if not on track."},
			},
			Required: []string{"on_track"},
		},
		"consistency": {
			Type: "OBJECT",
			Properties: map[string]*GeminiSchema{
				"logging_days_pct": {Type: "NUMBER", Description: "Share of days with complete logs, 0-100."},
				"comment":          {Type: "STRING"},
			},
			Required: []string{"logging_days_pct"},
		},
		"food_quality": {
			Type: "OBJECT",
			Properties: map[string]*GeminiSchema{
				"score": {Type: "NUMBER", Description: "Overall diet quality 0-10."},
				"highlights": {
					Type:  "ARRAY",
					Items: &GeminiSchema{Type: "STRING"},
				},
			},
			Required: []string{"score"},
		},
	},
	Required: []string{"summary", "weight_trend", "calorie_balance", "macro_breakdown", "insights", "actions"},
}

// reportFunction is the declaration handed to Gemini in report mode; the
// toolConfig forces the model to answer by calling it.
var reportFunction = functionDeclaration{
	Name:        reportFunctionName,
	Description: "Produce the full structured nutrition progress report for the user.",
	Parameters:  ReportSchema,
}
