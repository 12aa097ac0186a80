package main

import (
	"fmt"
	"os"

	"annual-plan/internal/config"
	"annual-plan/internal/export"
	"annual-plan/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	hecoPlan   bool
	configPath string
	root       string
	verbose    bool

	logger *zap.Logger
)

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// newLogger is swapped out in tests.
var newLogger = buildLogger

var rootCmd = &cobra.Command{
	Use:   "annualize",
	Short: "Turn a multi-year construction plan into an annual one",
	Long: `Reads the solved multi-year capacity plan and the utility outlook, builds
annual capacity targets, slides construction to the years that meet them and
writes gen_build_predetermined_adjusted.csv and generation_projects_info_adjusted.csv
for the annual model, plus capacity_additions_table.csv for review.

Without --heco-plan the standard scenario is used (inputs, outputs ->
inputs_annual, outputs_annual). With it the utility plan scenario is used
(inputs_heco, outputs_heco -> inputs_annual_heco, outputs_annual_heco) and
targets are not interpolated.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runAnnualize,
}

func init() {
	rootCmd.Flags().BoolVar(&hecoPlan, "heco-plan", false, "use the utility plan scenario instead of the optimized plan")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML study config (defaults to the built-in Oahu study)")
	rootCmd.PersistentFlags().StringVar(&root, "root", ".", "directory the scenario input/output directories live in")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every construction move")
}

func runAnnualize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	res, err := pipeline.New(cfg, logger).Run(pipeline.Options{
		Scenario: config.ScenarioName(hecoPlan),
		Root:     root,
		Write:    true,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Capacity additions (%s scenario)\n", res.Scenario)
	if err := res.Additions.Render(out); err != nil {
		return err
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(out, "\n%d warnings\n", len(res.Warnings))
		if err := export.RenderDiagnostics(out, res.Warnings); err != nil {
			return err
		}
	}
	for _, f := range res.Files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}

// execute runs the root command and flushes the logger whether or not the
// run failed.
func execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
