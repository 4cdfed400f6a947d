package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/talentdock/ats-matcher/internal/match"
	"github.com/talentdock/ats-matcher/internal/recommend"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output %q (use table, json or yaml)", format)
	}
}

// render writes v in the requested format. table is used for the table format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func resultTable(res match.Result) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "SCORE\t%d\n", res.Score)
		fmt.Fprintf(tw, "MATCHED\t%s\n", joinOrDash(res.MatchedSkills))
		fmt.Fprintf(tw, "MISSING\t%s\n", joinOrDash(res.MissingSkills))
	}
}

func recommendationsTable(recs *recommend.Recommendations) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "#\tSCORE\tJOB\tTITLE\tCOMPANY\tMISSING\tAI")
		for i, item := range recs.Items {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				i+1, item.Match.Score, item.Job.ID, item.Job.Title, item.Job.Company,
				joinOrDash(item.Match.MissingSkills), aiColumn(item),
			)
		}
	}
}

func applicantsTable(applicants []*recommend.Applicant) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "#\tSCORE\tCANDIDATE\tNAME\tSTATUS\tMISSING")
		for i, a := range applicants {
			name := "-"
			if a.Application.Candidate != nil && a.Application.Candidate.FullName != "" {
				name = a.Application.Candidate.FullName
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
				i+1, a.Match.Score, a.Application.CandidateID, name, a.Application.Status,
				joinOrDash(a.Match.MissingSkills),
			)
		}
	}
}

func aiColumn(item *recommend.Item) string {
	switch {
	case item.Analysis != nil:
		return fmt.Sprintf("%d", item.Analysis.Score)
	case item.AnalysisError != "":
		return "error"
	default:
		return "-"
	}
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
