package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// AnswerSampleRows is the number of result rows shown to the model.
const AnswerSampleRows = 10

// AnswerSystemMessage is the system message for answer synthesis.
const AnswerSystemMessage = "You are a data analyst who explains query results to non-technical readers. Respond with valid JSON only."

// BuildAnswerPrompt creates the prompt asking for a prose answer and a
// one-line quotation. Only the first AnswerSampleRows rows are included.
func BuildAnswerPrompt(question, sqlText string, rows []map[string]models.Value, stats models.Statistics) string {
	sample := rows
	if len(sample) > AnswerSampleRows {
		sample = sample[:AnswerSampleRows]
	}
	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		sampleJSON = []byte("[]")
	}

	var prompt strings.Builder
	prompt.WriteString("Based on the following information, provide a human-readable answer and an insightful quotation.\n\n")
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", strings.TrimSpace(question)))
	prompt.WriteString(fmt.Sprintf("SQL Query:\n%s\n\n", sqlText))
	prompt.WriteString(fmt.Sprintf("Sample Results (first %d rows):\n%s\n\n", AnswerSampleRows, sampleJSON))

	prompt.WriteString("Statistics:\n")
	prompt.WriteString(fmt.Sprintf("- Total Rows: %d\n", stats.TotalRows))
	prompt.WriteString(fmt.Sprintf("- Total Categories: %s\n", formatOptionalInt(stats.TotalCategories)))
	prompt.WriteString(fmt.Sprintf("- Grand Total: %s\n", formatOptionalFloat(stats.GrandTotal)))
	prompt.WriteString(fmt.Sprintf("- Highest: %s\n", formatCategory(stats.HighestCategory)))
	prompt.WriteString(fmt.Sprintf("- Lowest: %s\n", formatCategory(stats.LowestCategory)))
	prompt.WriteString(fmt.Sprintf("- Average per Category: %s\n\n", formatOptionalFloat(stats.AveragePerCategory)))

	prompt.WriteString("Provide your response in the following JSON format:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"human_readable_answer\": \"A clear, concise answer to the question with key insights and specific numbers.\",\n")
	prompt.WriteString("  \"quotation\": \"A brief, impactful quote summarizing the main finding.\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("```\n\n")

	prompt.WriteString("Focus on:\n")
	prompt.WriteString("1. Answering the original question directly\n")
	prompt.WriteString("2. Being specific with actual values from the data\n")
	prompt.WriteString("3. Plain language for non-technical readers\n")
	prompt.WriteString("4. Answering in the language of the question\n")

	return prompt.String()
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatCategory(c *models.CategoryValue) string {
	if c == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (%.2f)", c.Name, c.Value)
}
