package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Skufu/GoSymptom/internal/classify"
	"github.com/Skufu/GoSymptom/internal/config"
	"github.com/Skufu/GoSymptom/internal/diagnose"
	"github.com/Skufu/GoSymptom/internal/formatter"
)

type predictOptions struct {
	explain      bool
	topK         int
	artifactDir  string
	outputFormat string
}

func newPredictCmd() *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict SYMPTOMS",
		Short: "Predict the most likely diseases for a symptom description",
		Long: `Classify a free-text symptom description with the trained artifacts and
print the top candidates with their probabilities.

Examples:
  # Top 5 candidates
  symptomctl predict "fever, cough, sore throat"

  # Ask the configured model for explanations
  symptomctl predict "itchy red rash on both arms" --explain

  # Machine-readable output from a custom artifact directory
  symptomctl predict "headache and nausea" --artifacts ./models -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Ask the generative model to explain each prediction")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", classify.DefaultTopK, "Number of candidates to show (overrides TOP_K)")
	cmd.Flags().StringVar(&opts.artifactDir, "artifacts", "", "Directory holding the trained artifacts (overrides ARTIFACT_DIR)")
	cmd.Flags().StringVarP(&opts.outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")

	return cmd
}

func runPredict(cmd *cobra.Command, symptoms string, opts *predictOptions) error {
	if !slices.Contains(formatter.Formats, opts.outputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %s)", opts.outputFormat, strings.Join(formatter.Formats, ", "))
	}
	if err := classify.Validate(symptoms); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.artifactDir != "" {
		cfg.ArtifactDir = opts.artifactDir
	}
	if cmd.Flags().Changed("top-k") {
		if opts.topK <= 0 {
			return fmt.Errorf("--top-k must be positive, got %d", opts.topK)
		}
		cfg.TopK = opts.topK
	}

	logOut := io.Discard
	if opts.explain {
		logOut = cmd.ErrOrStderr()
	}
	svc, status, err := diagnose.Build(cfg, log.New(logOut, "symptomctl: ", 0))
	if err != nil {
		return err
	}
	if !opts.explain {
		svc = svc.WithoutExplanations()
	}

	human := opts.outputFormat == formatter.FormatHuman
	var s *spinner.Spinner
	if human && opts.explain && status.Explanations {
		s = spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = fmt.Sprintf(" Asking %s for explanations...", status.Model)
		s.Start()
	}

	report, err := svc.Diagnose(context.Background(), symptoms)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}

	if human && s != nil {
		printSuccess(cmd.ErrOrStderr(), "Explanations received")
	}
	return formatter.Display(cmd.OutOrStdout(), report, opts.outputFormat)
}

func printSuccess(w io.Writer, msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(w, "✓ %s\n", msg)
}
