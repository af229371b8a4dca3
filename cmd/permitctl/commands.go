package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/permits/api/internal/compliance"
	"github.com/stwalsh4118/permits/api/internal/config"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
	"github.com/stwalsh4118/permits/api/internal/seed"
	"github.com/stwalsh4118/permits/api/internal/services"
	"gopkg.in/yaml.v3"
)

// options are the persistent flags shared by every command.
type options struct {
	seedPath    string
	historyPath string
	logLevel    string
}

// ProjectFile is a compliance check request read from YAML or JSON.
type ProjectFile struct {
	ComplianceLevel string                `yaml:"compliance_level"`
	ProjectDetails  models.ProjectDetails `yaml:"project_details"`
	PropertyID      int64                 `yaml:"property_id"`
	PermitTypeID    int64                 `yaml:"permit_type_id"`
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "permitctl",
		Short:         "Run permit compliance checks against local reference data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.seedPath, "seed", "", "reference data file (default: embedded Shady Cove data)")
	root.PersistentFlags().StringVar(&opts.historyPath, "history", "", "SQLite file that records compliance checks")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newCheckCmd(opts),
		newGoalsCmd(opts),
		newHistoryCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// app is the service layer over the in-memory reference data.
type app struct {
	compliance services.ComplianceService
	close      func() error
}

func openApp(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	data, err := loadSeed(opts.seedPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(stderr, parseLevel(opts.logLevel))
	store := repository.NewMemoryStore(data)
	properties := services.NewPropertyService(store, log)
	permits := services.NewPermitService(store.Permits(), log)

	deps := services.ComplianceDeps{
		Properties: properties,
		Permits:    permits,
		Rules:      store,
		Engine:     compliance.NewEngine(store, nil, log),
	}
	closeFn := func() error { return nil }
	if opts.historyPath != "" {
		history, err := repository.OpenSQLiteCheckRepository(ctx, opts.historyPath)
		if err != nil {
			return nil, err
		}
		deps.Checks = history
		closeFn = history.Close
	}

	return &app{
		compliance: services.NewComplianceService(deps, log),
		close:      closeFn,
	}, nil
}

func newCheckCmd(opts *options) *cobra.Command {
	var (
		level  string
		direct bool
	)

	cmd := &cobra.Command{
		Use:   "check <project-file>",
		Short: "Check a project described in a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := readProjectFile(args[0])
			if err != nil {
				return err
			}
			if level != "" {
				project.ComplianceLevel = level
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if direct {
				result, err := a.compliance.DirectCheck(ctx, project.PropertyID, project.PermitTypeID, project.ProjectDetails)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			}

			report, err := a.compliance.Check(ctx, project.PropertyID, project.PermitTypeID, project.ProjectDetails, project.ComplianceLevel)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "override the compliance level in the project file")
	cmd.Flags().BoolVar(&direct, "direct", false, "run the zoning and permit-specific check only")
	return cmd
}

func newGoalsCmd(opts *options) *cobra.Command {
	var (
		description string
		pctx        models.PropertyContext
		outsideUGB  bool
	)

	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List the statewide planning goals a project triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outsideUGB {
				pctx.InUrbanGrowthBoundary = models.Bool(false)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			goals, err := a.compliance.ApplicableGoals(ctx, description, pctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range goals {
				fmt.Fprintf(out, "Goal %2d  %s\n", g.Number, g.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&pctx.Zoning, "zoning", "", "zoning district of the property")
	cmd.Flags().BoolVar(&pctx.InFloodplain, "floodplain", false, "property is in the floodplain")
	cmd.Flags().BoolVar(&pctx.RiparianOverlay, "riparian", false, "property is in the riparian overlay")
	cmd.Flags().BoolVar(&outsideUGB, "outside-ugb", false, "property is outside the urban growth boundary")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <property-id>",
		Short: "List recorded compliance checks for a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.historyPath == "" {
				return fmt.Errorf("--history is required")
			}
			propertyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid property id %q", args[0])
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.compliance.History(ctx, propertyID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %s  permit=%d  %-13s  %s\n",
					rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"), rec.ID, rec.PermitTypeID, rec.Level, rec.OverallStatus)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", services.DefaultHistoryLimit, "maximum number of checks to list")
	return cmd
}

func newSeedCmd(opts *options) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data into PostgreSQL",
		Long:  "Load reference data into the PostgreSQL database configured by DB_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadSeed(opts.seedPath)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.NewPostgresPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
			}

			counts, err := repository.SeedPostgres(ctx, db, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d properties, %d permit types, %d zoning rules, %d goals, %d goal requirements\n",
				data.Jurisdiction, counts.Properties, counts.PermitTypes, counts.Rules, counts.Goals, counts.Requirements)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before seeding")
	return cmd
}

func readProjectFile(path string) (*ProjectFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	// JSON is a subset of YAML, so one decoder serves both formats.
	var project ProjectFile
	if err := yaml.Unmarshal(raw, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
	}
	return &project, nil
}

func loadSeed(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.WarnLevel
	}
	return parsed
}
