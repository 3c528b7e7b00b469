package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nroshak/marketcheck/internal/model"
)

func newAskCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Fact-check a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			question := strings.Join(args, " ")
			result, err := a.pipeline.Run(cmd.Context(), question)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			printResult(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full result as JSON")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fact-check questions from a file or stdin, one per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			in := os.Stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			enc := json.NewEncoder(os.Stdout)
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				question := strings.TrimSpace(scanner.Text())
				if question == "" || strings.HasPrefix(question, "#") {
					continue
				}
				result, err := a.pipeline.Run(cmd.Context(), question)
				if err != nil {
					// A bad question should not abort the batch.
					fmt.Fprintf(os.Stderr, "skip %q: %v\n", question, err)
					continue
				}
				if err := enc.Encode(result); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one question per line (default stdin)")
	return cmd
}

func printResult(w *os.File, r *model.FactCheckResult) {
	fmt.Fprintf(w, "Q: %s\n", r.Question)
	fmt.Fprintf(w, "Claim: %s (%s)\n\n", r.ParsedClaim.Claim, r.ParsedClaim.Type)
	fmt.Fprintln(w, r.Answer.Summary)
	fmt.Fprintln(w)

	if r.Answer.ProbYes != nil {
		fmt.Fprintf(w, "Implied probability: %.0f%%\n", *r.Answer.ProbYes*100)
	}
	fmt.Fprintf(w, "Confidence: %.2f  Ambiguity: %s\n", r.Answer.Confidence, r.Answer.Ambiguity)
	if r.Sentiment != nil && r.Sentiment.Label != model.SentimentUnknown {
		fmt.Fprintf(w, "Sentiment: %s (%.2f)\n", r.Sentiment.Label, r.Sentiment.Confidence)
		for _, d := range r.Sentiment.Drivers {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}
	if r.BestMarket != nil {
		fmt.Fprintf(w, "\nBest market: %s\n", r.BestMarket.Title)
		if r.BestMarket.URL != "" {
			fmt.Fprintf(w, "  %s\n", r.BestMarket.URL)
		}
	}
	for _, alt := range r.Alternatives {
		fmt.Fprintf(w, "Also: %s (match %.2f)\n", alt.Title, alt.MatchScore)
	}
	if len(r.Expiring) > 0 {
		fmt.Fprintln(w, "\nMarkets expiring around the claimed date:")
		for _, m := range r.Expiring {
			fmt.Fprintf(w, "  - %s\n", m.Title)
		}
	}
}
