package pipeline

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"git.home.luguber.info/inful/pluginbuild/internal/metrics"
)

// RenderSummary writes the stage results of st as a table to w.
func RenderSummary(w io.Writer, st *State) {
	t := table.NewWriter()
	t.SetTitle("BUILD SUMMARY")
	t.Style().Title.Align = text.AlignCenter
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Stage", "Result", "Duration"})
	for _, s := range st.Stages {
		dur := ""
		if s.Result != metrics.ResultSkipped {
			dur = s.Duration.Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{string(s.Name), string(s.Result), dur})
	}
	for _, d := range st.Dependencies {
		t.AppendFooter(table.Row{d.Name, "commit", d.ShortCommit()})
	}
	if st.Package.Archive != "" {
		t.AppendFooter(table.Row{"archive", "", st.Package.Archive})
	}
	t.AppendFooter(table.Row{"total", "", st.Duration.Round(time.Millisecond).String()})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignCenter},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}
