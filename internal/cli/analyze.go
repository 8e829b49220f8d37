package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/assessment-engine/internal/analysis"
	"github.com/gokatarajesh/assessment-engine/internal/assessment"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a request file (JSON or YAML) and print the result",
		Args:  cobra.NoArgs,
		RunE:  runAnalyze,
	}
	cmd.Flags().StringP("file", "f", "", "Request file (.json, .yaml, .yml); - reads JSON from stdin. "+
		"Quote numeric correct_answer values in YAML (\"4\", not 4)")
	cmd.Flags().String("format", formatText, "Output format: text or json")
	cmd.Flags().Bool("insights", false, "Attach the rule-based learning insight")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := loggerFor(cmd)
	path := mustString(cmd, "file")
	format := mustString(cmd, "format")
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	insights, _ := cmd.Flags().GetBool("insights")

	raw, err := readRequest(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	req, err := analysis.DecodeRequest(raw)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	logger.Debug().
		Int("questions", len(req.Questions)).
		Int("responses", len(req.Responses)).
		Msg("request decoded")
	warnUnscorableKeys(logger, req.Questions)

	var opts []assessment.Option
	if insights {
		opts = append(opts, assessment.WithInsight(assessment.RuleInsight{}))
	}
	res := assessment.NewEngine(opts...).Analyze(req)

	if format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeText(cmd.OutOrStdout(), res)
}

// readRequest loads a request and normalizes YAML input to JSON so both go
// through the same schema validation.
func readRequest(stdin io.Reader, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return json.Marshal(doc)
	default:
		return raw, nil
	}
}

// warnUnscorableKeys flags answer keys that are not plain strings. YAML
// turns an unquoted 4 into a number, and such keys never match an answer.
func warnUnscorableKeys(logger zerolog.Logger, questions []assessment.Question) {
	for _, q := range questions {
		if _, ok := q.CorrectAnswer.Text(); ok {
			continue
		}
		logger.Warn().
			Int("question_id", q.ID).
			RawJSON("correct_answer", keyJSON(q.CorrectAnswer)).
			Msg("correct_answer is not a string, answers to this question will never score")
	}
}

func keyJSON(k assessment.AnswerKey) []byte {
	raw, err := k.MarshalJSON()
	if err != nil {
		return []byte("null")
	}
	return raw
}

func writeText(w io.Writer, res assessment.Result) error {
	if res.StudentID != "" || res.TestID != "" {
		fmt.Fprintf(w, "student: %s  test: %s\n\n", res.StudentID, res.TestID)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECTIVE\tLEVEL\tCONFIDENCE")
	for _, c := range res.Competencies {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c.LearningObjective, c.CompetencyLevel, c.ConfidenceScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\ndifficulty adjustment: %+d\n", res.DifficultyAdjustment)
	if res.Exhausted() {
		fmt.Fprintln(w, "next question: none (exhausted)")
	} else {
		fmt.Fprintf(w, "next question: %d\n", res.NextQuestionID)
	}

	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "\nrecommendations:")
		for _, r := range res.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}

	if in := res.Insight; in != nil {
		fmt.Fprintf(w, "\ninsight (%s): style=%s predicted=%d readiness=%s\n",
			in.Strategy, in.LearningStyle, in.PredictedPerformance, in.Readiness)
	}
	return nil
}
