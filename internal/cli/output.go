package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/e-wrobel/dirsync/internal/config"
	"github.com/e-wrobel/dirsync/internal/sync"
)

type failureJSON struct {
	Change sync.FileChange `json:"change"`
	Error  string          `json:"error"`
}

type reportJSON struct {
	Changes   []sync.FileChange `json:"changes"`
	Stats     sync.Stats        `json:"stats"`
	Applied   bool              `json:"applied"`
	Succeeded int               `json:"succeeded"`
	Failed    []failureJSON     `json:"failed"`
	Errors    []string          `json:"errors"`
	Cancelled bool              `json:"cancelled"`
}

func (a *app) render(rep *sync.Report, deleteOrphans bool) error {
	if a.flags.Output == outputJSON {
		return writeJSON(a.out, toJSON(rep))
	}
	return writeReportTable(a.out, rep, deleteOrphans)
}

func toJSON(rep *sync.Report) reportJSON {
	out := reportJSON{
		Changes:   rep.Changes,
		Stats:     rep.Stats,
		Applied:   rep.Applied,
		Succeeded: rep.Succeeded,
		Failed:    []failureJSON{},
		Errors:    []string{},
		Cancelled: rep.Cancelled,
	}
	if out.Changes == nil {
		out.Changes = []sync.FileChange{}
	}
	for _, f := range rep.Failed {
		out.Failed = append(out.Failed, failureJSON{Change: f.Change, Error: f.Err.Error()})
	}
	for _, err := range rep.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.SetAutoFormatHeaders(false)
	return table
}

func writeReportTable(w io.Writer, rep *sync.Report, deleteOrphans bool) error {
	if len(rep.Changes) == 0 {
		if _, err := fmt.Fprintln(w, "Nothing to change."); err != nil {
			return err
		}
	} else {
		table := newTable(w, []string{"CHANGE", "PATH"})
		for _, ch := range rep.Changes {
			path := ch.RelPath
			if ch.IsDir {
				path += "/"
			}
			table.Append([]string{ch.Kind.String(), path})
		}
		table.Render()
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	s := rep.Stats
	stats := newTable(w, []string{"STATISTIC", "VALUE"})
	stats.Append([]string{"Files in source", strconv.Itoa(s.FilesInSource)})
	stats.Append([]string{"Directories in source", strconv.Itoa(s.DirectoriesInSource)})
	stats.Append([]string{"Copied files", strconv.Itoa(s.CopiedFiles)})
	stats.Append([]string{"Overwritten files", strconv.Itoa(s.OverwrittenFiles)})
	if deleteOrphans {
		stats.Append([]string{"Deleted in destination", strconv.Itoa(s.DeletedFilesInDestination)})
	}
	stats.Append([]string{"Planning time", s.Duration.Round(time.Millisecond).String()})
	if rep.Applied {
		stats.Append([]string{"Applied", strconv.Itoa(rep.Succeeded)})
		stats.Append([]string{"Failed", strconv.Itoa(len(rep.Failed))})
	}
	stats.Render()

	if rep.Cancelled {
		if _, err := fmt.Fprintln(w, "\nRun cancelled, results are partial."); err != nil {
			return err
		}
	}
	if len(rep.Errors) > 0 {
		if _, err := fmt.Fprintln(w, "\nEncountered errors:"); err != nil {
			return err
		}
		for _, e := range rep.Errors {
			if _, err := fmt.Fprintf(w, "  - %v\n", e); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSettingsTable(w io.Writer, s config.Settings) {
	table := newTable(w, []string{"KEY", "VALUE"})
	table.Append([]string{"lastSourcePath", s.LastSourcePath})
	table.Append([]string{"lastDestPath", s.LastDestPath})
	table.Append([]string{"deleteOrphans", strconv.FormatBool(s.DeleteOrphans)})
	table.Append([]string{"checkContent", strconv.FormatBool(s.CheckContent)})
	table.Append([]string{"compareMethod", s.CompareMethod.String()})
	table.Append([]string{"exclude", fmt.Sprint(s.Exclude)})
	table.Append([]string{"workers", strconv.Itoa(s.Workers)})
	table.Render()
}
