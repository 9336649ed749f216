package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
	"github.com/reoring/datafixer/internal/batch"
	"github.com/reoring/datafixer/source"
)

type migrateFlags struct {
	ref     string
	out     string
	format  string
	workers int
	target  int
}

func (a *app) migrateCmd() *cobra.Command {
	var fl migrateFlags
	cmd := &cobra.Command{
		Use:   "migrate [files...]",
		Short: "Migrate documents to the target version",
		Long: `Reads each file, migrates it and writes the result. Without --out the
migrated documents are written to stdout in argument order. A document that
fails is reported and left out; the others are still written.

Example:
  datafixer migrate --type CHUNK --out migrated/ region/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMigrate(cmd, fl, args)
		},
	}
	cmd.Flags().StringVarP(&fl.ref, "type", "t", "CHUNK", "Type reference of the document roots")
	cmd.Flags().StringVarP(&fl.out, "out", "o", "", "Output directory (default: config output.dir, else stdout)")
	cmd.Flags().StringVarP(&fl.format, "format", "f", "", "Output format: json or yaml (default: input format)")
	cmd.Flags().IntVarP(&fl.workers, "workers", "w", 0, "Documents migrated at once (default: config workers)")
	cmd.Flags().IntVar(&fl.target, "target", 0, "Target data version (default: newest fix)")
	return cmd
}

func (a *app) runMigrate(cmd *cobra.Command, fl migrateFlags, files []string) error {
	if fl.target != 0 {
		a.cfg.TargetVersion = fl.target
	}
	if fl.workers != 0 {
		a.cfg.Workers = fl.workers
	}
	if fl.out != "" {
		a.cfg.Output.Dir = fl.out
	}
	if fl.format != "" {
		a.cfg.Output.Format = fl.format
	}
	var outFormat source.Format
	if a.cfg.Output.Format != "" {
		f, err := source.ParseFormat(a.cfg.Output.Format)
		if err != nil {
			return err
		}
		outFormat = f
	}

	fixer, err := a.fixer()
	if err != nil {
		return err
	}
	ref := df.TypeRef(strings.ToUpper(fl.ref))
	if s, _ := fixer.SchemaAt(fixer.Target()); s != nil {
		if _, ok := s.Resolve(ref); !ok {
			return fmt.Errorf("unknown type %q (known: %v)", ref, s.Refs())
		}
	}

	formats := make(map[string]source.Format, len(files))
	owners := map[string]string{}
	for _, path := range files {
		format := outFormat
		if format == "" {
			format = source.FormatFromPath(path)
		}
		formats[path] = format
		if a.cfg.Output.Dir == "" {
			continue
		}
		name := outputName(path, format)
		if prev, ok := owners[name]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, path, filepath.Join(a.cfg.Output.Dir, name))
		}
		owners[name] = path
	}

	opt := source.DefaultOptions()
	opt.MaxDepth = a.cfg.Input.MaxDepth
	opt.AllowDuplicates = a.cfg.Input.AllowDuplicates

	jobs := make([]batch.Job, len(files))
	for i, path := range files {
		jobs[i] = batch.Job{Name: path, Ref: ref, Load: loadFile(path, opt)}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.New(fixer, batch.WithWorkers(a.cfg.Workers), batch.WithLogger(a.logger))
	results, runErr := runner.Run(ctx, jobs)

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Name, res.Err)
			continue
		}
		if err := a.write(cmd.OutOrStdout(), res, formats[res.Name]); err != nil {
			return err
		}
		a.logger.Info("migrated", zap.String("file", res.Name), zap.Int("from", res.From), zap.Int("to", res.To))
	}
	if runErr != nil {
		return runErr
	}
	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d documents failed", n, len(results))
	}
	return nil
}

func loadFile(path string, opt source.Options) func() (dynamic.Value, error) {
	return func() (dynamic.Value, error) {
		f, err := os.Open(path)
		if err != nil {
			return dynamic.Null(), err
		}
		defer f.Close()
		return source.Decode(source.FormatFromPath(path), f, opt)
	}
}

func (a *app) write(stdout io.Writer, res batch.Result, format source.Format) error {
	if a.cfg.Output.Dir == "" {
		return source.Encode(format, stdout, res.Doc, a.cfg.Output.Pretty)
	}
	var buf bytes.Buffer
	if err := source.Encode(format, &buf, res.Doc, a.cfg.Output.Pretty); err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(filepath.Join(a.cfg.Output.Dir, outputName(res.Name, format)), buf.Bytes(), 0o644)
}

// outputName is the file name a migrated document is written under.
func outputName(path string, format source.Format) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + string(format)
}
