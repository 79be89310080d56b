package sync

import (
	"fmt"
	"time"
)

// Report is the outcome of a plan, optionally followed by an apply.
type Report struct {
	Stats     Stats
	Changes   []FileChange
	Applied   bool
	Succeeded int
	Failed    []ApplyFailure
	Errors    []error
	Cancelled bool
}

// NewReport joins a plan with the result of applying it. res is nil for a
// plan that was not applied.
func NewReport(plan *Plan, res *ApplyResult) *Report {
	r := &Report{
		Stats:     plan.Stats,
		Changes:   plan.Changes,
		Cancelled: plan.Cancelled,
	}
	for _, err := range plan.Errors {
		r.addErr(err)
	}
	if res != nil {
		r.Applied = true
		r.Succeeded = res.Succeeded
		r.Failed = res.Failed
		r.Cancelled = r.Cancelled || res.Cancelled
		for _, f := range res.Failed {
			r.addErr(f.Err)
		}
	}
	return r
}

func (r *Report) addErr(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// Summary is the one-line end-of-run message.
func (r *Report) Summary() string {
	state := "DONE"
	if r.Cancelled {
		state = "CANCELLED"
	}
	return fmt.Sprintf("%s – files=%d dirs=%d copied=%d overwritten=%d deleted=%d errors=%d duration=%s",
		state,
		r.Stats.FilesInSource,
		r.Stats.DirectoriesInSource,
		r.Stats.CopiedFiles,
		r.Stats.OverwrittenFiles,
		r.Stats.DeletedFilesInDestination,
		len(r.Errors),
		r.Stats.Duration.Round(time.Millisecond))
}
