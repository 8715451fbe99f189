package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/config"
	"github.com/gofhir/fhirxml/engine"
	"github.com/gofhir/fhirxml/query"
	"github.com/gofhir/fhirxml/worker"
)

const (
	outputJSON = "json"
	outputText = "text"
)

var errNoInput = errors.New("no input documents, use - to read standard input")

// overrides lays command line flags over the configured decoder and output
// sections. Flags that were not given keep the configured value.
func overrides(cmd *cli.Command, cfg *config.Config) (config.DecoderConfig, config.OutputConfig, error) {
	dc, oc := cfg.Decoder, cfg.Output
	if cmd.IsSet("lenient") {
		dc.Strict = !cmd.Bool("lenient")
	}
	if cmd.IsSet("no-validate") {
		dc.Validate = !cmd.Bool("no-validate")
	}
	if cmd.IsSet("max-depth") {
		if dc.MaxDepth = int(cmd.Int("max-depth")); dc.MaxDepth < 0 {
			return dc, oc, fmt.Errorf("invalid max depth %d", dc.MaxDepth)
		}
	}
	if cmd.IsSet("workers") {
		dc.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("output") {
		oc.Format = strings.ToLower(cmd.String("output"))
	}
	if cmd.IsSet("pretty") {
		oc.Pretty = cmd.Bool("pretty")
	}
	if oc.Format != outputJSON && oc.Format != outputText {
		return dc, oc, fmt.Errorf("unsupported output format %q", oc.Format)
	}
	return dc, oc, nil
}

func runDecode(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.NArg() == 0 {
		return errNoInput
	}

	dc, oc, err := overrides(cmd, e.cfg)
	if err != nil {
		return err
	}
	opts := dc.Options(e.log, e.metrics)
	dec, err := engine.New(dc.Version(), opts...)
	if err != nil {
		return fmt.Errorf("unable to create decoder: %w", err)
	}

	expr := cmd.String("select")
	var sel *query.Evaluator
	if expr != "" {
		sel = query.New(opts...)
		if _, err := sel.Compile(expr); err != nil {
			return err
		}
	}

	jobs, errs := collectJobs(cmd.Args().Slice(), cmd.Root().Reader)
	if len(jobs) == 0 {
		return multierr.Append(errs, errNoInput)
	}

	br := worker.NewBatchDecoder(dec, dec.Options().WorkerCount, e.log).DecodeBatch(ctx, jobs)
	out := cmd.Root().Writer
	for _, jr := range br.Results {
		selection, err := selectValues(sel, expr, jr)
		errs = multierr.Append(errs, err)
		if err := render(out, oc, jr, selection); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
	}
	errs = multierr.Append(errs, br.Err())
	for _, jr := range br.Results {
		jr.Result.Release()
		jr.Result = nil
	}

	e.log.Info("Decoding finished",
		zap.Int("documents", br.TotalJobs),
		zap.Int("failed", br.FailedJobs),
		zap.Duration("elapsed", br.TotalDuration))
	e.log.Debug("Decoder metrics", zap.Any("metrics", e.metrics.Export()))
	return errs
}

// collectJobs expands file arguments and glob patterns, in natural order
// within a pattern. "-" reads standard input once. Unreadable or binary
// sources are reported and skipped.
func collectJobs(args []string, stdin io.Reader) ([]worker.Job, error) {
	var (
		jobs   []worker.Job
		errs   error
		seenIn bool
	)
	for _, arg := range args {
		if arg == "-" {
			if seenIn {
				continue
			}
			seenIn = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reading standard input: %w", err))
				continue
			}
			jobs = append(jobs, worker.Job{ID: "stdin", Data: data})
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bad pattern '%s': %w", arg, err))
			continue
		}
		if len(matches) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("no files match pattern '%s'", arg))
			continue
		}
		sort.Sort(natural.StringSlice(matches))
		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err == nil {
				err = checkNotBinary(data)
			}
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", m, err))
				continue
			}
			jobs = append(jobs, worker.Job{ID: m, Data: data})
		}
	}
	return jobs, errs
}

// checkNotBinary rejects files whose magic bytes identify a known binary
// format. XML itself has no signature and passes.
func checkNotBinary(data []byte) error {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil
	}
	return fmt.Errorf("not an XML document (detected %s)", kind.MIME.Value)
}

// selectValues evaluates the selection of a decoded document. A failed
// evaluation is recorded on the result so the document renders as failed.
func selectValues(sel *query.Evaluator, expr string, jr *worker.JobResult) ([]string, error) {
	if sel == nil || jr.Err != nil || jr.Result == nil {
		return nil, nil
	}
	values, err := sel.Strings(jr.Result.Resource, expr)
	if err != nil {
		jr.Result.AddIssue(fx.Error(fx.IssueTypeProcessing).Diagnostics(err.Error()).Build())
		return nil, fmt.Errorf("%s: %w", jr.ID, err)
	}
	return values, nil
}

func issuesOf(jr *worker.JobResult) []fx.Issue {
	if jr.Result != nil {
		return jr.Result.Issues
	}
	if jr.Err != nil {
		return []fx.Issue{fx.Error(fx.IssueTypeException).Diagnostics(jr.Err.Error()).Build()}
	}
	return nil
}

func failed(jr *worker.JobResult) bool {
	return jr.Err != nil || jr.Result == nil || !jr.Result.OK
}

func render(w io.Writer, oc config.OutputConfig, jr *worker.JobResult, selection []string) error {
	if oc.Format == outputText {
		return writeText(w, jr, selection)
	}
	return writeJSON(w, oc.Pretty, jr, selection)
}

// writeJSON prints one JSON document per line: the resource, the selection
// as an array of strings, or an OperationOutcome for a failed document.
func writeJSON(w io.Writer, pretty bool, jr *worker.JobResult, selection []string) error {
	var (
		data []byte
		err  error
	)
	switch {
	case failed(jr):
		data, err = fx.OperationOutcome(issuesOf(jr))
	case selection != nil:
		data, err = json.Marshal(selection)
	default:
		data, err = jr.Result.Resource.MarshalJSON()
	}
	if err != nil {
		return err
	}
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writeText(w io.Writer, jr *worker.JobResult, selection []string) error {
	var b strings.Builder

	status := "DECODED"
	if failed(jr) {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "== %s ==\n", jr.ID)
	fmt.Fprintf(&b, "Status: %s\n", status)
	if jr.Result != nil && jr.Result.ResourceType != "" {
		fmt.Fprintf(&b, "Resource: %s\n", jr.Result.ResourceType)
	}
	fmt.Fprintf(&b, "Duration: %s\n", jr.Duration.Round(time.Microsecond))

	if issues := issuesOf(jr); len(issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, is := range issues {
			location := ""
			if len(is.Expression) > 0 {
				location = " @ " + strings.Join(is.Expression, ", ")
			}
			if is.Line > 0 {
				location += fmt.Sprintf(" (line %d, column %d)", is.Line, is.Column)
			}
			fmt.Fprintf(&b, "  %s [%s] %s%s\n", severityLabel(is.Severity), is.Code, is.Diagnostics, location)
		}
	}
	if len(selection) > 0 {
		b.WriteString("\nSelection:\n")
		for _, v := range selection {
			fmt.Fprintf(&b, "  %s\n", v)
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func severityLabel(s fx.IssueSeverity) string {
	switch s {
	case fx.SeverityFatal:
		return "FATAL"
	case fx.SeverityError:
		return "ERROR"
	case fx.SeverityWarning:
		return "WARN "
	case fx.SeverityInformation:
		return "INFO "
	default:
		return "     "
	}
}
