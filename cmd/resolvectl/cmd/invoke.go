package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jamalishaq/resolve_envelope/internal/adapter/appsync"
	"github.com/jamalishaq/resolve_envelope/internal/adapter/logging"
	"github.com/jamalishaq/resolve_envelope/internal/adapter/metrics"
	"github.com/jamalishaq/resolve_envelope/internal/config"
	"github.com/jamalishaq/resolve_envelope/internal/pipeline"
	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

type invokeOptions struct {
	eventPath    string
	resolver     string
	printMetrics bool
}

func newInvokeCmd(root *rootOptions) *cobra.Command {
	opts := &invokeOptions{}

	invokeCmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke a sample resolver and print the normalized response",
		Long: `Reads an AppSync resolver event (an object, or an array for batch invokes)
from --event or stdin, runs it through the envelope pipeline with the selected
sample resolver, and prints the response as JSON. Failures that the pipeline
does not handle are reported on stderr with a non-zero exit status.

Sample resolvers: ` + strings.Join(resolverNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd, root.cfg, opts)
		},
	}

	invokeCmd.Flags().StringVarP(&opts.eventPath, "event", "e", "-", "event JSON file, or - for stdin")
	invokeCmd.Flags().StringVarP(&opts.resolver, "resolver", "r", "echo", "sample resolver to invoke")
	invokeCmd.Flags().BoolVar(&opts.printMetrics, "metrics", false, "print collected metrics to stderr")
	return invokeCmd
}

func runInvoke(cmd *cobra.Command, cfg config.Config, opts *invokeOptions) error {
	handler, ok := sampleResolvers[opts.resolver]
	if !ok {
		return fmt.Errorf("unknown resolver %q (available: %s)", opts.resolver, strings.Join(resolverNames(), ", "))
	}

	event, err := readEvent(cmd.InOrStdin(), opts.eventPath)
	if err != nil {
		return err
	}

	logger := logging.NewZerologLogger(logging.NewZerolog(cmd.ErrOrStderr(), logging.Options{
		App:     "resolvectl",
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	}))
	recorder := metrics.NewRecorder()
	if opts.printMetrics {
		defer writeMetrics(cmd.ErrOrStderr(), recorder.Registry())
	}

	p := pipeline.New(handler, pipeline.WithLogger(logger), pipeline.WithMetrics(recorder))
	p.Use(appsync.New(adapterOptions(cfg, logger, recorder)...).Middleware())

	response, err := p.Handle(cmd.Context(), event)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", opts.resolver, err)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// adapterOptions maps configuration onto appsync adapter options.
func adapterOptions(cfg config.Config, logger usecase.Logger, recorder usecase.Metrics) []appsync.Option {
	opts := []appsync.Option{
		appsync.WithLogger(logger),
		appsync.WithMetrics(recorder),
		appsync.WithParallelBatch(cfg.Batch.Parallel),
		appsync.WithOpaqueErrorType(cfg.OpaqueErrorType),
	}
	if cfg.MasksFailures() {
		opts = append(opts, appsync.WithFailurePolicy(appsync.MaskFailures))
	}
	if len(cfg.Validation.RequiredArgs) > 0 {
		opts = append(opts, appsync.WithArgsValidator(usecase.RequiredArgs(cfg.Validation.RequiredArgs...)))
	}
	return opts
}

// readEvent decodes an event from path, or from stdin when path is "-" or empty.
func readEvent(stdin io.Reader, path string) (usecase.Event, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return usecase.Event{}, fmt.Errorf("failed to read event: %w", err)
	}

	var event usecase.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return usecase.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}

// writeMetrics prints counters and histogram sample counts in a flat name{labels} value form.
func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) {
	families, err := gatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
			}
			sort.Strings(labels)

			suffix := ""
			if len(labels) > 0 {
				suffix = "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(w, "%s%s %g\n", family.GetName(), suffix, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				fmt.Fprintf(w, "%s_count%s %d\n", family.GetName(), suffix, metric.GetHistogram().GetSampleCount())
			}
		}
	}
}
