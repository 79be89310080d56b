package cli

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/e-wrobel/dirsync/internal/compare"
	"github.com/e-wrobel/dirsync/internal/config"
	"github.com/e-wrobel/dirsync/internal/sync"
)

type syncFlags struct {
	deleteOrphans bool
	checkContent  bool
	method        string
	workers       int
	exclude       string
	dryRun        bool
	confirm       bool
	progress      bool
}

func (a *app) syncCmd() *cobra.Command {
	var f syncFlags
	cmd := &cobra.Command{
		Use:   "sync [source] [target]",
		Short: "Plan and apply changes so target matches source",
		Long: `Plan and apply changes so target matches source.

Without arguments the directories of the previous run are used.`,
		Args: rootArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, args, f, !f.dryRun)
		},
	}
	addSyncFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the plan without applying it")
	cmd.Flags().BoolVar(&f.confirm, "confirm", false, "Show the plan and ask before applying it")
	return cmd
}

func (a *app) planCmd() *cobra.Command {
	var f syncFlags
	cmd := &cobra.Command{
		Use:   "plan [source] [target]",
		Short: "Show the changes a sync would make",
		Args:  rootArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, args, f, false)
		},
	}
	addSyncFlags(cmd, &f)
	return cmd
}

func addSyncFlags(cmd *cobra.Command, f *syncFlags) {
	cmd.Flags().BoolVar(&f.deleteOrphans, "delete-orphans", true, "Delete target entries missing in source")
	cmd.Flags().BoolVar(&f.checkContent, "check-content", true, "Compare content of files present on both sides")
	cmd.Flags().StringVar(&f.method, "method", "hash", "Content comparison (hash, bytes)")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Concurrent content comparisons")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Comma-separated gitignore-style patterns to skip")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "Print progress while planning")
}

func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return usageErr("expected <source> <target> or no arguments, got %d", len(args))
	}
	return nil
}

func (a *app) options(cmd *cobra.Command, f syncFlags) (sync.Options, error) {
	opt := a.settings.Options()
	flags := cmd.Flags()
	if flags.Changed("delete-orphans") {
		opt.DeleteOrphans = f.deleteOrphans
	}
	if flags.Changed("check-content") {
		opt.CheckContent = f.checkContent
	}
	if flags.Changed("method") {
		m, err := compare.ParseMethod(f.method)
		if err != nil {
			return opt, usageErr("%v", err)
		}
		opt.Method = m
	}
	if flags.Changed("workers") {
		if f.workers < 1 {
			return opt, usageErr("--workers must be at least 1")
		}
		opt.Workers = f.workers
	}
	if flags.Changed("exclude") {
		opt.Exclude = config.SplitList(f.exclude)
	}
	if f.progress {
		opt.Progress = func(ev sync.ProgressEvent) {
			fmt.Fprintf(a.errOut, "[%d/%d] %s\n", ev.Processed, ev.Total, ev.Description)
		}
	}
	return opt, nil
}

func (a *app) roots(args []string) (string, string, error) {
	src, dst := a.settings.LastSourcePath, a.settings.LastDestPath
	if len(args) == 2 {
		src, dst = args[0], args[1]
	}
	if src == "" || dst == "" {
		return "", "", usageErr("source and target are required (no previous run to reuse)")
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", "", usageErr("source: %v", err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return "", "", usageErr("target: %v", err)
	}
	return absSrc, absDst, nil
}

func (a *app) runSync(cmd *cobra.Command, args []string, f syncFlags, apply bool) error {
	ctx := cmd.Context()
	src, dst, err := a.roots(args)
	if err != nil {
		return err
	}
	opt, err := a.options(cmd, f)
	if err != nil {
		return err
	}

	a.logger.Info("planning",
		"source", src,
		"target", dst,
		"checkContent", opt.CheckContent,
		"deleteOrphans", opt.DeleteOrphans,
		"method", opt.Method)

	eng := sync.New(a.fs, a.logger)
	plan, err := eng.Plan(ctx, src, dst, opt)
	if err != nil {
		return err
	}
	a.rememberRoots(src, dst)

	if apply && f.confirm && len(plan.Changes) > 0 && !plan.Cancelled {
		if err := a.render(sync.NewReport(plan, nil), opt.DeleteOrphans); err != nil {
			return err
		}
		if !a.ask(fmt.Sprintf("Apply %d changes to %s?", len(plan.Changes), dst)) {
			fmt.Fprintln(a.out, "Aborted, nothing applied.")
			return nil
		}
	}

	var res *sync.ApplyResult
	if apply && !plan.Cancelled {
		res = eng.Apply(ctx, plan.Changes)
	}
	rep := sync.NewReport(plan, res)

	a.logger.Info(rep.Summary())
	if err := a.render(rep, opt.DeleteOrphans); err != nil {
		return err
	}

	switch {
	case rep.Cancelled:
		a.exitCode = ExitCancelled
	case len(rep.Errors) > 0:
		a.exitCode = ExitRunErrors
	}
	return nil
}

func (a *app) rememberRoots(src, dst string) {
	a.settings.LastSourcePath, a.settings.LastDestPath = src, dst
	if a.stored.LastSourcePath == src && a.stored.LastDestPath == dst {
		return
	}
	a.stored.LastSourcePath, a.stored.LastDestPath = src, dst
	if err := config.Save(a.settingsPath, a.stored); err != nil {
		a.logger.Warn("could not save settings", "path", a.settingsPath, "err", err)
	}
}

func (a *app) ask(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
