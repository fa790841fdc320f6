package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/repositories"
	"github.com/ekaya-inc/askdb/pkg/services"
)

type askOptions struct {
	projectID string
	noCache   bool
	asJSON    bool
}

func (o *askOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.projectID, "project", "p", "", "Project id from the catalog")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "Do not connect to the response cache")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print the full result as JSON")
	_ = cmd.MarkFlagRequired("project")
}

func newAskCommand() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer one question and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withPipeline(cmd.Context(), opts, func(ctx context.Context, p services.PipelineService) error {
				result, err := p.Ask(ctx, opts.projectID, question)
				if err != nil {
					return describeFailure(err)
				}
				return printResult(cmd.OutOrStdout(), result, opts.asJSON)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newReplayCommand() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "replay RESPONSE_ID",
		Short: "Re-run a cached answer's SQL against current data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noCache {
				return fmt.Errorf("replay needs the response cache")
			}
			return withPipeline(cmd.Context(), opts, func(ctx context.Context, p services.PipelineService) error {
				result, err := p.Replay(ctx, opts.projectID, args[0])
				if err != nil {
					return describeFailure(err)
				}
				return printResult(cmd.OutOrStdout(), result, opts.asJSON)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func withPipeline(ctx context.Context, opts askOptions, run func(context.Context, services.PipelineService) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	projects, err := repositories.NewFileProjectRepository(cfg.ProjectsFile)
	if err != nil {
		return err
	}

	responses, closeCache, err := cacheFor(ctx, cfg, opts.noCache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	pipeline, err := newPipeline(cfg, projects, responses, logger)
	if err != nil {
		return err
	}
	return run(ctx, pipeline)
}

func cacheFor(ctx context.Context, cfg *config.Config, disabled bool, logger *zap.Logger) (repositories.ResponseRepository, func(), error) {
	if disabled {
		return discardResponses{}, func() {}, nil
	}
	db, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewResponseRepository(db), db.Close, nil
}

// describeFailure adds the attempted SQL to a stage failure.
func describeFailure(err error) error {
	if sqlText := failedSQL(err); sqlText != "" {
		return fmt.Errorf("%w\n   SQL: %s", err, sqlText)
	}
	return err
}

func failedSQL(err error) string {
	var pe *services.PipelineError
	if errors.As(err, &pe) {
		return pe.SQL
	}
	return ""
}

func printResult(w io.Writer, r *models.AskResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Fprintln(w, "✅", r.Answer)
	if r.Quotation != "" {
		fmt.Fprintf(w, "   %q\n", r.Quotation)
	}
	fmt.Fprintln(w)

	bold.Fprintln(w, "SQL")
	cyan.Fprintln(w, "  "+r.GeneratedSQL)
	if r.Metadata.UsedFallback {
		yellow.Fprintln(w, "  (keyword fallback; the model's SQL was not usable)")
	}
	fmt.Fprintln(w)

	bold.Fprintf(w, "Rows (%d)\n", len(r.Rows))
	if r.Markdown != "" {
		fmt.Fprintln(w, r.Markdown)
	}

	fmt.Fprintf(w, "\nresponse_id: %s\n", r.ResponseID)
	return nil
}
