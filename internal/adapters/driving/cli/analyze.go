package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
	"github.com/custodia-labs/docrisk/internal/sinks"
)

// analyzeFlags are the per-run overrides shared by analyze and watch.
type analyzeFlags struct {
	query         string
	chunkSize     int
	parallelism   int
	retrieval     string
	zeroTolerance bool
}

var (
	analyzeOpts     analyzeFlags
	analyzeJSON     bool
	analyzeProgress bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Analyse a document for legal and risk issues",
	Long: `Splits the document into chunks, analyses every chunk for legal and
risk concerns, answers the query against the document and delivers the
report to the configured sinks.

Use "-" to read the document from stdin.

Exit status is non-zero only when the run fails. Chunk gaps and sink
delivery failures are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	bindAnalyzeFlags(analyzeCmd, &analyzeOpts)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the run result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeProgress, "progress", false, "show an interactive progress view")
	rootCmd.AddCommand(analyzeCmd)
}

func bindAnalyzeFlags(cmd *cobra.Command, f *analyzeFlags) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "question to answer about the document (required)")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "chunk size in characters (default from config)")
	cmd.Flags().IntVar(&f.parallelism, "parallelism", 0, "concurrent chunk analyses (default from config)")
	cmd.Flags().StringVar(&f.retrieval, "retrieval", "", "retrieval mode: keyword or vector (default from config)")
	cmd.Flags().BoolVar(&f.zeroTolerance, "zero-tolerance", false, "fail the run if any chunk analysis fails")
}

// applyTo returns a settings adjustment for the flags set on cmd.
// Boolean flags override the configured value only when given, so
// --zero-tolerance=false can turn a configured true off.
func (f *analyzeFlags) applyTo(cmd *cobra.Command) func(*domain.Settings) {
	return func(s *domain.Settings) {
		f.apply(s, cmd.Flags().Changed("zero-tolerance"))
	}
}

func (f *analyzeFlags) apply(s *domain.Settings, zeroToleranceSet bool) {
	if f.chunkSize > 0 {
		s.Pipeline.ChunkSize = f.chunkSize
	}
	if f.parallelism > 0 {
		s.Pipeline.Parallelism = f.parallelism
	}
	if f.retrieval != "" {
		s.Retrieval.Mode = domain.RetrievalMode(f.retrieval)
	}
	if zeroToleranceSet {
		s.Pipeline.ZeroTolerance = f.zeroTolerance
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]
	if strings.TrimSpace(analyzeOpts.query) == "" {
		return errors.New("--query is required")
	}

	session, err := openSession(cmd, analyzeOpts.applyTo(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	var result *domain.RunResult
	if analyzeProgress {
		app, appErr := tui.NewApp(&tui.Ports{Pipeline: session, Observers: session}, source, analyzeOpts.query)
		if appErr != nil {
			return appErr
		}
		result, err = app.WithContext(cmd.Context()).Run()
	} else {
		if !analyzeJSON {
			session.AddObserver(stagePrinter(cmd.ErrOrStderr()))
		}
		result, err = session.Run(cmd.Context(), source, analyzeOpts.query)
	}

	if analyzeJSON {
		if outErr := writeResultJSON(cmd.OutOrStdout(), result); outErr != nil {
			return outErr
		}
	} else if result != nil {
		writeResultText(cmd.OutOrStdout(), styles.DefaultStyles(), result)
	}

	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}

// stagePrinter writes one line per stage transition.
func stagePrinter(w io.Writer) driving.RunObserver {
	return driving.RunObserverFunc(func(e domain.StageEvent) {
		switch {
		case e.Stage == domain.StageFailed:
			fmt.Fprintf(w, "%s: %v\n", e.Stage.Description(), e.Err)
		case e.Detail != "":
			fmt.Fprintf(w, "%s... %s\n", e.Stage.Description(), e.Detail)
		default:
			fmt.Fprintf(w, "%s...\n", e.Stage.Description())
		}
	})
}

type sinkResultJSON struct {
	Sink     string `json:"sink"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Location string `json:"location,omitempty"`
}

type runResultJSON struct {
	RunID    string            `json:"run_id"`
	Status   domain.RunStatus  `json:"status"`
	Stage    domain.Stage      `json:"stage"`
	Error    string            `json:"error,omitempty"`
	Report   *sinks.ReportJSON `json:"report,omitempty"`
	Sinks    []sinkResultJSON  `json:"sinks"`
	Warnings []string          `json:"warnings"`
}

func newRunResultJSON(r *domain.RunResult) runResultJSON {
	out := runResultJSON{
		RunID:    r.RunID,
		Status:   r.Status,
		Stage:    r.Stage,
		Sinks:    make([]sinkResultJSON, 0, len(r.SinkResults)),
		Warnings: r.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if r.Report != nil {
		rep := sinks.NewReportJSON(r.Report)
		out.Report = &rep
	}
	for _, sr := range r.SinkResults {
		out.Sinks = append(out.Sinks, sinkResultJSON{
			Sink:     sr.Sink,
			Status:   string(sr.Status),
			Reason:   sr.Reason,
			Location: sr.Location,
		})
	}
	return out
}

func writeResultJSON(w io.Writer, r *domain.RunResult) error {
	if r == nil {
		return nil
	}
	data, err := json.MarshalIndent(newRunResultJSON(r), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeResultText(w io.Writer, s *styles.Styles, r *domain.RunResult) {
	fmt.Fprintf(w, "%s %s\n", s.Title.Render("Run "+r.RunID+":"), s.Status(r.Status).Render(r.Status.Description()))

	if rep := r.Report; rep != nil {
		fmt.Fprintf(w, "Document: %s (%d chunks, %d findings, %d gaps)\n",
			rep.Source, rep.ChunkCount, len(rep.Findings), len(rep.Gaps))
		if rep.QueryAnswer.Query != "" {
			fmt.Fprintf(w, "\n%s %s\n", s.Subtitle.Render("Query:"), rep.QueryAnswer.Query)
			answer := rep.QueryAnswer.Answer
			if answer == "" {
				answer = s.Muted.Render("(no answer)")
			}
			fmt.Fprintf(w, "%s %s\n", s.Subtitle.Render("Answer:"), answer)
		}
	}

	if len(r.SinkResults) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.Subtitle.Render("Sinks:"))
		for _, sr := range r.SinkResults {
			if sr.Delivered() {
				fmt.Fprintf(w, "  %s %s\n", s.Success.Render("✓ "+sr.Sink), sr.Location)
			} else {
				fmt.Fprintf(w, "  %s %s\n", s.Error.Render("✗ "+sr.Sink), sr.Reason)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.Warning.Render("Warnings:"))
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	if r.Err != nil {
		fmt.Fprintf(w, "\n%s %v\n", s.Error.Render("Error:"), r.Err)
	}
}
