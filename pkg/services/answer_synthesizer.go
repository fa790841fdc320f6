package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/jsonutil"
	"github.com/ekaya-inc/askdb/pkg/llm"
	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/metrics"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/prompts"
	"github.com/ekaya-inc/askdb/pkg/workers"
)

// DefaultQuotation is used when the model gives no usable quotation.
const DefaultQuotation = "Data retrieved successfully."

// DefaultAnswer is used when the model gives no usable answer.
func DefaultAnswer(rowCount int) string {
	return fmt.Sprintf("Query executed successfully and returned %d rows of data.", rowCount)
}

// Answer is the prose explanation of a result.
type Answer struct {
	Text      string
	Quotation string
}

// AnswerSynthesizer explains query results in plain language.
type AnswerSynthesizer interface {
	// Synthesize never fails; problems are logged and defaults returned.
	Synthesize(ctx context.Context, question, sqlText string, rows []map[string]models.Value, stats models.Statistics) Answer
}

type answerSynthesizer struct {
	llmFactory llm.LLMClientFactory
	pool       *workers.Pool
	logger     *zap.Logger
}

// answerPayload is the JSON shape requested from the model.
type answerPayload struct {
	Answer    jsonutil.FlexibleString `json:"human_readable_answer"`
	Quotation jsonutil.FlexibleString `json:"quotation"`
}

func NewAnswerSynthesizer(llmFactory llm.LLMClientFactory, pool *workers.Pool, logger *zap.Logger) AnswerSynthesizer {
	return &answerSynthesizer{
		llmFactory: llmFactory,
		pool:       pool,
		logger:     logger.Named("answer_synthesizer"),
	}
}

func (s *answerSynthesizer) Synthesize(ctx context.Context, question, sqlText string, rows []map[string]models.Value, stats models.Statistics) Answer {
	fallback := Answer{Text: DefaultAnswer(len(rows)), Quotation: DefaultQuotation}

	client, temperature, err := s.llmFactory.ForTask(llm.TaskAnswer)
	if err != nil {
		s.logger.Warn("Answer model unavailable", zap.Error(err))
		return fallback
	}

	prompt := prompts.BuildAnswerPrompt(question, sqlText, rows, stats)

	start := time.Now()
	result, err := workers.Submit(ctx, s.pool, func(ctx context.Context) (*llm.GenerateResponseResult, error) {
		return client.GenerateResponse(ctx, prompt, prompts.AnswerSystemMessage, temperature)
	})
	metrics.ObserveLLMLatency(llm.TaskAnswer, time.Since(start))
	if err != nil {
		s.logger.Warn("Answer call failed",
			zap.String("model", client.GetModel()),
			zap.String("error", logging.SanitizeError(err)))
		return fallback
	}

	payload, err := llm.ParseJSONResponse[answerPayload](llm.StripThinking(result.Content))
	if err != nil {
		s.logger.Warn("Answer response is not valid JSON",
			zap.String("output", logging.TruncateString(result.Content, 200)),
			zap.Error(err))
		return fallback
	}

	answer := fallback
	if text := strings.TrimSpace(payload.Answer.String()); text != "" {
		answer.Text = text
	}
	if quote := strings.TrimSpace(payload.Quotation.String()); quote != "" {
		answer.Quotation = quote
	}
	return answer
}
