package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"gosigma/adapters/excel"
	"gosigma/adapters/jsonseries"
	"gosigma/app"
	"gosigma/domain/doe"
	"gosigma/domain/spc"
	"gosigma/internal"
	"gosigma/internal/config"
	"gosigma/internal/container"
	"gosigma/internal/testkit"
	"gosigma/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// sourceFlags select which series to read from an input file
type sourceFlags struct {
	column   string
	sheet    string
	dataPath string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.column, "column", "", "Column (CSV/XLSX) or field (JSON) to analyze; default is the first numeric one")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Workbook sheet; default is the first sheet")
	cmd.Flags().StringVar(&f.dataPath, "data-path", "", "gjson path to the data inside a JSON document")
}

func main() {
	_ = godotenv.Load()

	var asJSON bool
	rootCmd := &cobra.Command{
		Use:           "gosigma",
		Short:         "Six Sigma analysis: control charts, capability studies and designed experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newControlCmd(&asJSON),
		newBatchCmd(&asJSON),
		newCapabilityCmd(&asJSON),
		newHistogramCmd(&asJSON),
		newDOECmd(&asJSON),
		newSimulateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newService builds the analysis service from the environment, persisting results when
// DATABASE_URL is set
func newService(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := internal.LogLevelWarn
	if os.Getenv("GOSIGMA_LOG_LEVEL") != "" {
		level = internal.ParseLogLevel(cfg.LogLevel)
	}
	logger := internal.NewLogger(level)
	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func withService(cmd *cobra.Command, run func(ctx context.Context, svc *app.AnalysisService, reports ports.ReportRenderer) error) error {
	ctx := cmd.Context()
	c, err := newService(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)
	return run(ctx, c.Service, c.Reports)
}

// readSeries picks the reader by file extension: .json goes through gjson, everything
// else through the CSV/XLSX reader
func readSeries(ctx context.Context, path string, f sourceFlags) ([]spc.Series, error) {
	var reader ports.SeriesReader
	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg := jsonseries.Config{DataPath: f.dataPath, Name: "values"}
		if f.column != "" {
			cfg.Fields = []string{f.column}
		}
		reader = jsonseries.NewReader(cfg, internal.DefaultLogger)
	} else {
		cfg := excel.DefaultReaderConfig()
		cfg.Sheet = f.sheet
		if f.column != "" {
			cfg.Columns = []string{f.column}
		}
		reader = excel.NewDataReader(cfg, internal.DefaultLogger)
	}

	series, err := reader.ReadSeries(ctx, path)
	if err != nil {
		return nil, err
	}
	if f.column != "" {
		for _, s := range series {
			if s.Name == f.column {
				return []spc.Series{s}, nil
			}
		}
		if len(series) == 1 {
			return series, nil
		}
		return nil, fmt.Errorf("no numeric series named %q in %s", f.column, path)
	}
	return series, nil
}

func readOneSeries(ctx context.Context, path string, f sourceFlags) (spc.Series, error) {
	series, err := readSeries(ctx, path, f)
	if err != nil {
		return spc.Series{}, err
	}
	if len(series) == 0 {
		return spc.Series{}, fmt.Errorf("no numeric data found in %s", path)
	}
	return series[0], nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newControlCmd(asJSON *bool) *cobra.Command {
	var src sourceFlags
	var sigmaLevel float64
	var noRules bool
	var label string

	cmd := &cobra.Command{
		Use:   "control [data-file]",
		Short: "Compute control limits and special-cause rule violations",
		Long: `Compute mean ± k·sigma control limits for one series and scan it with the
eight pattern rules.

Example: gosigma control torque.csv --column torque --sigma-level 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, reports ports.ReportRenderer) error {
				series, err := readOneSeries(ctx, args[0], src)
				if err != nil {
					return err
				}
				if label == "" {
					label = series.Name
				}
				checkRules := !noRules
				resp, err := svc.ControlLimits(ctx, app.ControlRequest{
					Label:      label,
					Series:     series.Values,
					SigmaLevel: sigmaLevel,
					CheckRules: &checkRules,
				})
				if err != nil {
					return err
				}
				if *asJSON {
					return printJSON(resp)
				}
				_, err = os.Stdout.Write(reports.ControlMarkdown(label, resp.Limits))
				return err
			})
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&sigmaLevel, "sigma-level", 0, "Limit width in standard deviations (default from DEFAULT_SIGMA_LEVEL or 3)")
	cmd.Flags().BoolVar(&noRules, "no-rules", false, "Skip the pattern rules")
	cmd.Flags().StringVar(&label, "label", "", "Title for the report and stored record")
	return cmd
}

func newBatchCmd(asJSON *bool) *cobra.Command {
	var src sourceFlags
	var sigmaLevel float64

	cmd := &cobra.Command{
		Use:   "batch [data-file]",
		Short: "Compute control limits for every numeric column of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, _ ports.ReportRenderer) error {
				series, err := readSeries(ctx, args[0], src)
				if err != nil {
					return err
				}
				resp, err := svc.BatchControlLimits(ctx, app.BatchControlRequest{Series: series, SigmaLevel: sigmaLevel})
				if err != nil {
					return err
				}
				if *asJSON {
					return printJSON(resp)
				}

				fmt.Printf("%-24s %10s %10s %10s %8s %8s\n", "Series", "Mean", "LCL", "UCL", "Beyond", "Rules")
				for _, item := range resp.Items {
					if item.Limits == nil {
						fmt.Printf("%-24s %s\n", item.Name, item.Error)
						continue
					}
					l := item.Limits
					fmt.Printf("%-24s %10.4g %10.4g %10.4g %8d %8d\n",
						item.Name, l.Mean, l.LCL, l.UCL, len(l.Violations), len(l.RuleViolations))
				}
				fmt.Printf("\n%d series, %d out of control, %d failed\n", len(resp.Items), resp.OutOfControl, resp.Failed)
				return nil
			})
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&sigmaLevel, "sigma-level", 0, "Limit width in standard deviations")
	return cmd
}

func newCapabilityCmd(asJSON *bool) *cobra.Command {
	var src sourceFlags
	var usl, lsl, target float64
	var subgroup, bins int
	var label, reportPath string

	cmd := &cobra.Command{
		Use:   "capability [data-file]",
		Short: "Run a process capability study against specification limits",
		Long: `Compute Cp, Cpk, Pp, Ppk, sigma level and DPMO for one series.

Example: gosigma capability shafts.xlsx --column diameter --lsl 9.95 --usl 10.05 --report shafts.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, reports ports.ReportRenderer) error {
				series, err := readOneSeries(ctx, args[0], src)
				if err != nil {
					return err
				}
				if label == "" {
					label = series.Name
				}
				req := app.CapabilityRequest{
					Label:        label,
					Series:       series.Values,
					USL:          usl,
					LSL:          lsl,
					SubgroupSize: subgroup,
					Bins:         bins,
					Histogram:    reportPath != "",
				}
				if cmd.Flags().Changed("target") {
					req.Target = &target
				}

				resp, err := svc.Capability(ctx, req)
				if err != nil {
					return err
				}

				md := reports.CapabilityMarkdown(label, resp.Result, resp.Histogram)
				if reportPath != "" {
					out := md
					if !strings.EqualFold(filepath.Ext(reportPath), ".md") {
						out = reports.ToHTML(md)
					}
					if err := os.WriteFile(reportPath, out, 0644); err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
				}
				if *asJSON {
					return printJSON(resp)
				}
				_, err = os.Stdout.Write(md)
				return err
			})
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&usl, "usl", 0, "Upper specification limit")
	cmd.Flags().Float64Var(&lsl, "lsl", 0, "Lower specification limit")
	cmd.Flags().Float64Var(&target, "target", 0, "Target value (default midpoint of the limits)")
	cmd.Flags().IntVar(&subgroup, "subgroup-size", 0, "Consecutive subgroup size for within-subgroup sigma")
	cmd.Flags().IntVar(&bins, "bins", 0, "Histogram bins")
	cmd.Flags().StringVar(&label, "label", "", "Title for the report and stored record")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an HTML report (or Markdown for .md) to this path")
	_ = cmd.MarkFlagRequired("usl")
	_ = cmd.MarkFlagRequired("lsl")
	return cmd
}

func newHistogramCmd(asJSON *bool) *cobra.Command {
	var src sourceFlags
	var usl, lsl float64
	var bins int

	cmd := &cobra.Command{
		Use:   "histogram [data-file]",
		Short: "Bin a series against its specification limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, _ ports.ReportRenderer) error {
				series, err := readOneSeries(ctx, args[0], src)
				if err != nil {
					return err
				}
				resp, err := svc.Histogram(ctx, app.HistogramRequest{Series: series.Values, USL: usl, LSL: lsl, Bins: bins})
				if err != nil {
					return err
				}
				if *asJSON {
					return printJSON(resp.Histogram)
				}
				for _, b := range resp.Histogram {
					flag := ""
					if b.OutOfSpec {
						flag = " *"
					}
					fmt.Printf("%10.4g to %10.4g %6d %s%s\n", b.Start, b.End, b.Count, strings.Repeat("#", b.Count), flag)
				}
				return nil
			})
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&usl, "usl", 0, "Upper specification limit")
	cmd.Flags().Float64Var(&lsl, "lsl", 0, "Lower specification limit")
	cmd.Flags().IntVar(&bins, "bins", 0, "Number of bins")
	_ = cmd.MarkFlagRequired("usl")
	_ = cmd.MarkFlagRequired("lsl")
	return cmd
}

func newDOECmd(asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doe",
		Short: "Generate and analyze designed experiments",
	}
	cmd.AddCommand(newDOEDesignCmd(asJSON), newDOEAnalyzeCmd(asJSON))
	return cmd
}

func newDOEDesignCmd(asJSON *bool) *cobra.Command {
	var designType, out, responseName string
	var k int
	var factorSpecs []string
	var coded bool

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Generate a design matrix",
		Long: `Generate a full factorial, two-level, half-fraction or Plackett-Burman design.

Factors are given as name=low:high[:levels]. Two-level generators accept --k instead.
With --out the design is written as a workbook whose response column can be filled in
and passed to "gosigma doe analyze".

Example: gosigma doe design --type full_factorial --factor Temp=150:200 --factor Time=10:30 --out run.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			factors, err := parseFactors(factorSpecs)
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, _ ports.ReportRenderer) error {
				resp, err := svc.Design(ctx, app.DesignRequest{
					Type:    doe.DesignType(designType),
					Factors: factors,
					K:       k,
					Coded:   coded,
				})
				if err != nil {
					return err
				}

				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					if err := excel.WriteDesign(f, resp.Design, responseName); err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "Design with %d runs written to %s\n", resp.Design.RunCount(), out)
				}
				if *asJSON {
					return printJSON(resp)
				}
				printDesign(resp.Design)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&designType, "type", string(doe.DesignFullFactorial), "full_factorial|two_level|half_fraction|plackett_burman")
	cmd.Flags().IntVar(&k, "k", 0, "Number of factors for two-level generators")
	cmd.Flags().StringArrayVar(&factorSpecs, "factor", nil, "Factor as name=low:high[:levels]; repeatable")
	cmd.Flags().BoolVar(&coded, "coded", false, "Scale full factorial levels to -1/+1")
	cmd.Flags().StringVar(&out, "out", "", "Write the design to this .xlsx workbook")
	cmd.Flags().StringVar(&responseName, "response", "Response", "Response column header for --out")
	return cmd
}

func newDOEAnalyzeCmd(asJSON *bool) *cobra.Command {
	var direction, pvalueMode, label string
	var target float64

	cmd := &cobra.Command{
		Use:   "analyze [design.xlsx]",
		Short: "Analyze a completed design workbook",
		Long: `Estimate main effects and interactions, build the ANOVA table and find the
factor settings that best meet the goal.

Example: gosigma doe analyze run.xlsx --direction target --target 42 --pvalue-mode exact`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			design, response, responseName, err := excel.ReadDesign(f)
			f.Close()
			if err != nil {
				return err
			}

			spec := doe.Response{Name: responseName, Direction: doe.Direction(direction)}
			if cmd.Flags().Changed("target") {
				spec.Target = &target
			}
			return withService(cmd, func(ctx context.Context, svc *app.AnalysisService, _ ports.ReportRenderer) error {
				resp, err := svc.AnalyzeDOE(ctx, app.DOERequest{
					Label:      label,
					Runs:       design.Runs,
					Factors:    design.Factors,
					Response:   response,
					Spec:       spec,
					PValueMode: doe.PValueMode(pvalueMode),
					Uncoded:    !design.Coded,
				})
				if err != nil {
					return err
				}
				if *asJSON {
					return printJSON(resp)
				}
				printAnalysis(resp.Analysis)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&direction, "direction", string(doe.Maximize), "maximize|minimize|target")
	cmd.Flags().Float64Var(&target, "target", 0, "Target response for --direction target")
	cmd.Flags().StringVar(&pvalueMode, "pvalue-mode", "", "legacy|exact (default from ANOVA_PVALUE_MODE)")
	cmd.Flags().StringVar(&label, "label", "", "Label for the stored record")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	cfg := testkit.DefaultProcessConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic process series as CSV",
		Long: `Generate normally distributed measurements with optional shift, drift and outliers,
useful for trying the control and capability commands.

Example: gosigma simulate --count 50 --shift-at 30 --shift 1.5 --out shifted.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := testkit.NewProcessGenerator(cfg).Generate()

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			fmt.Fprintln(w, "value")
			for _, v := range values {
				fmt.Fprintln(w, strconv.FormatFloat(v, 'f', 6, 64))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "Number of points")
	cmd.Flags().Float64Var(&cfg.Mean, "mean", cfg.Mean, "Process mean")
	cmd.Flags().Float64Var(&cfg.Sigma, "sigma", cfg.Sigma, "Process standard deviation")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic output")
	cmd.Flags().IntVar(&cfg.ShiftAt, "shift-at", cfg.ShiftAt, "Index where a mean shift starts (0 disables)")
	cmd.Flags().Float64Var(&cfg.ShiftSize, "shift", cfg.ShiftSize, "Size of the mean shift")
	cmd.Flags().IntVar(&cfg.DriftAt, "drift-at", cfg.DriftAt, "Index where a linear drift starts (0 disables)")
	cmd.Flags().Float64Var(&cfg.DriftSlope, "drift", cfg.DriftSlope, "Drift per point")
	cmd.Flags().IntSliceVar(&cfg.Outliers, "outlier", nil, "Index of an injected outlier; repeatable")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}

// parseFactors reads name=low:high[:levels] specs; a bare name yields a default -1/+1 factor
func parseFactors(specs []string) ([]doe.Factor, error) {
	factors := make([]doe.Factor, 0, len(specs))
	for _, spec := range specs {
		name, rng, hasRange := strings.Cut(spec, "=")
		f := doe.Factor{Name: strings.TrimSpace(name), Levels: 2, Low: -1, High: 1}
		if f.Name == "" {
			return nil, fmt.Errorf("factor %q has no name", spec)
		}
		if hasRange {
			parts := strings.Split(rng, ":")
			if len(parts) < 2 || len(parts) > 3 {
				return nil, fmt.Errorf("factor %q: expected low:high[:levels]", spec)
			}
			var err error
			if f.Low, err = strconv.ParseFloat(parts[0], 64); err != nil {
				return nil, fmt.Errorf("factor %q: bad low value: %w", spec, err)
			}
			if f.High, err = strconv.ParseFloat(parts[1], 64); err != nil {
				return nil, fmt.Errorf("factor %q: bad high value: %w", spec, err)
			}
			if len(parts) == 3 {
				if f.Levels, err = strconv.Atoi(parts[2]); err != nil {
					return nil, fmt.Errorf("factor %q: bad level count: %w", spec, err)
				}
			}
		}
		factors = append(factors, f)
	}
	return factors, nil
}

func printDesign(d *doe.DesignMatrix) {
	fmt.Printf("%s design, %d runs", d.Type, d.RunCount())
	if d.Resolution != "" {
		fmt.Printf(", resolution %s", d.Resolution)
	}
	fmt.Println()
	fmt.Printf("%4s", "Run")
	for _, name := range d.Factors {
		fmt.Printf(" %10s", name)
	}
	fmt.Println()
	for i, run := range d.Runs {
		fmt.Printf("%4d", i+1)
		for _, v := range run {
			fmt.Printf(" %10.4g", v)
		}
		fmt.Println()
	}
}

func printAnalysis(a *doe.Analysis) {
	fmt.Printf("Response %s over %d runs, grand mean %.4g\n\n", a.Response.Name, a.RunCount, a.GrandMean)

	fmt.Println("Main effects:")
	for _, e := range a.MainEffects {
		mark := ""
		if e.IsSignificant {
			mark = " *"
		}
		fmt.Printf("  %-16s %10.4g %6.1f%%%s\n", e.Factor, e.Effect, e.PercentContribution, mark)
	}
	if len(a.Interactions) > 0 {
		fmt.Println("Interactions:")
		for _, in := range a.Interactions {
			mark := ""
			if in.IsSignificant {
				mark = " *"
			}
			fmt.Printf("  %-16s %10.4g%s\n", in.Name(), in.Effect, mark)
		}
	}

	fmt.Printf("\nANOVA (%s p-values):\n", a.ANOVA.Mode)
	fmt.Printf("  %-16s %10s %4s %10s %8s %8s\n", "Source", "SS", "DF", "MS", "F", "p")
	for _, row := range a.ANOVA.Rows {
		fmt.Printf("  %-16s %10.4g %4d %10.4g %8.3f %8.4f\n",
			row.Source, row.SumOfSquares, row.DegreesOfFreedom, row.MeanSquare, row.FValue, row.PValue)
	}
	fmt.Printf("  R² %.4f, adjusted R² %.4f\n", a.ANOVA.RSquared, a.ANOVA.AdjustedRSquared)

	fmt.Println("\nOptimal settings:")
	for _, s := range a.OptimalSettings {
		fmt.Printf("  %-16s %+g\n", s.Factor, s.Level)
	}
	fmt.Printf("Predicted response: %.4g\n", a.PredictedOptimum)
}
