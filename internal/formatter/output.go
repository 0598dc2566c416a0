package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Skufu/GoSymptom/internal/diagnose"
	"github.com/Skufu/GoSymptom/internal/explain"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted values for the -o flag.
var Formats = []string{FormatHuman, FormatJSON, FormatYAML}

// Display writes report to w in the requested format.
func Display(w io.Writer, report diagnose.Report, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, report)
	case FormatYAML:
		return displayYAML(w, report)
	case FormatHuman, "":
		displayHuman(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func displayJSON(w io.Writer, report diagnose.Report) error {
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayYAML(w io.Writer, report diagnose.Report) error {
	output, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func displayHuman(w io.Writer, report diagnose.Report) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "📝 Symptoms: %s\n\n", report.Symptoms)

	cyan.Fprintln(w, "🩺 LIKELY CONDITIONS:")
	for i, c := range report.Predictions {
		fmt.Fprintf(w, "   %d. %-24s %s\n", i+1, c.Label, color.HiBlackString("%5.1f%%", c.Probability*100))
	}
	fmt.Fprintln(w)

	if exp := report.Explanation; exp != nil {
		if exp.Degraded() {
			yellow.Fprintln(w, "⚠️  EXPLANATION:")
		} else {
			green.Fprintln(w, "📄 EXPLANATIONS:")
		}
		for _, rec := range exp.Records {
			displayRecord(w, rec)
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Predictions are not a medical diagnosis. Run with -o json or -o yaml for machine-readable output"))
}

func displayRecord(w io.Writer, rec explain.Explanation) {
	if !rec.Structured() {
		fmt.Fprintln(w, wrapText(rec.Response, 80, "   "))
		fmt.Fprintln(w)
		return
	}

	color.New(color.Bold).Fprintf(w, "   %s\n", rec.Disease)
	field(w, "Description", rec.Description)
	field(w, "Treatment", rec.Treatment)
	field(w, "Prevention", rec.Prevention)
	fmt.Fprintln(w)
}

func field(w io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "      %s:\n", color.CyanString(name))
	fmt.Fprintln(w, wrapText(value, 80, "        "))
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		current := indent
		for _, word := range words {
			switch {
			case current == indent:
				current += word
			case len(current)+len(word)+1 > width:
				result.WriteString(current + "\n")
				current = indent + word
			default:
				current += " " + word
			}
		}
		result.WriteString(current + "\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
