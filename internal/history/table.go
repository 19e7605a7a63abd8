package history

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderRuns writes runs as a table to w.
func RenderRuns(w io.Writer, runs []Run) {
	t := table.NewWriter()
	t.SetTitle("BUILD HISTORY")
	t.Style().Title.Align = text.AlignCenter
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Started", "Revision", "Toolset", "Commits", "Duration", "Result"})
	for _, r := range runs {
		result := "OK"
		if !r.Succeeded() {
			result = fmt.Sprintf("FAILED (%d)", r.ExitCode)
		}
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Revision,
			r.Toolset,
			commitSummary(r.Commits),
			r.Duration.Round(10 * time.Millisecond).String(),
			result,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignCenter},
	})
	t.Render()
}

// RenderRun writes the details and stages of a single run to w.
func RenderRun(w io.Writer, run Run) {
	t := table.NewWriter()
	t.SetTitle("RUN " + run.ID)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Stage", "Result", "Duration", "Error"})
	for _, s := range run.Stages {
		t.AppendRow(table.Row{s.Name, s.Result, s.Duration.Round(time.Millisecond).String(), s.Error})
	}
	t.AppendFooter(table.Row{"revision", run.Revision, "", commitSummary(run.Commits)})
	if run.Archive != "" {
		t.AppendFooter(table.Row{"archive", "", "", run.Archive})
	}
	t.AppendFooter(table.Row{"exit", run.ExitCode, run.Duration.Round(10 * time.Millisecond).String(), run.Error})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 80},
	})
	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func commitSummary(commits map[string]string) string {
	names := make([]string, 0, len(commits))
	for n := range commits {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		c := commits[n]
		if len(c) > 8 {
			c = c[:8]
		}
		parts = append(parts, n+"@"+c)
	}
	return strings.Join(parts, " ")
}
