package prompts

import (
	"fmt"
	"strings"
)

// dialectGuidance holds syntax rules the model tends to get wrong per dialect.
var dialectGuidance = map[string][]string{
	"oracle": {
		"Limit rows with FETCH FIRST n ROWS ONLY, never LIMIT or TOP.",
		"Use SYSDATE and ADD_MONTHS for relative dates.",
		"Quote identifiers with double quotes exactly as spelled in the schema.",
		"Do not end the statement with a semicolon.",
	},
	"postgres": {
		"Limit rows with LIMIT n.",
		"Use CURRENT_DATE and INTERVAL for relative dates.",
		"Quote identifiers with double quotes exactly as spelled in the schema.",
	},
	"mssql": {
		"Limit rows with SELECT TOP n, never LIMIT.",
		"Use GETDATE() and DATEADD for relative dates.",
		"Quote identifiers with square brackets.",
	},
	"mysql": {
		"Limit rows with LIMIT n.",
		"Use CURDATE() and DATE_SUB with INTERVAL for relative dates.",
		"Quote identifiers with backticks.",
	},
}

// dialectDisplayNames maps dialect tags to the names used in prompt text.
var dialectDisplayNames = map[string]string{
	"oracle":   "Oracle",
	"postgres": "PostgreSQL",
	"mssql":    "Microsoft SQL Server",
	"mysql":    "MySQL",
}

// DialectDisplayName returns the product name for a dialect tag, or the tag itself.
func DialectDisplayName(dialect string) string {
	if name, ok := dialectDisplayNames[strings.ToLower(dialect)]; ok {
		return name
	}
	return dialect
}

// SQLGenerationSystemMessage returns the system message for SQL generation.
func SQLGenerationSystemMessage(dialect string) string {
	return fmt.Sprintf("You are an expert %s SQL developer. You translate business questions into a single correct, read-only %s query.",
		DialectDisplayName(dialect), DialectDisplayName(dialect))
}

// BuildSQLGenerationPrompt creates the user prompt for turning a question into SQL.
// schemaJSON is the output of SchemaDescription.JSON.
func BuildSQLGenerationPrompt(dialect, schemaJSON, question string) string {
	name := DialectDisplayName(dialect)
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("# %s Query Generation\n\n", name))
	prompt.WriteString("## Database Schema\n\n")
	prompt.WriteString("Tables are keys; each lists its columns with data types and optional descriptions.\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(schemaJSON)
	prompt.WriteString("\n```\n\n")

	prompt.WriteString("## User Question\n\n")
	prompt.WriteString(strings.TrimSpace(question))
	prompt.WriteString("\n\n")

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString(fmt.Sprintf("1. Write exactly one %s statement that answers the question.\n", name))
	prompt.WriteString("2. Use only tables and columns that appear in the schema, spelled exactly as shown including any suffix.\n")
	prompt.WriteString("3. Prefer aggregates (COUNT, SUM, AVG, MIN, MAX) with GROUP BY when the question asks for totals or comparisons.\n")
	prompt.WriteString("4. Column descriptions may be in any language; match the question against them.\n")
	prompt.WriteString("5. Return only the SQL. No explanation, no markdown, no alternatives.\n")

	if rules := dialectGuidance[strings.ToLower(dialect)]; len(rules) > 0 {
		prompt.WriteString(fmt.Sprintf("\n## %s Rules\n\n", name))
		for _, rule := range rules {
			prompt.WriteString("- ")
			prompt.WriteString(rule)
			prompt.WriteString("\n")
		}
	}

	return prompt.String()
}
