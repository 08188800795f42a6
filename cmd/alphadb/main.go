// Package main contains the CLI front-end for the schema version-management
// engine. It uses cobra for command/flag handling.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"alphadb/internal/consolidate"
	"alphadb/internal/dialect"
	_ "alphadb/internal/dialect/mysql"
	_ "alphadb/internal/dialect/postgres"
	"alphadb/internal/source"
	"alphadb/internal/verify"

	"alphadb/internal/engine"
)

type connectionFlags struct {
	dsn     string
	db      string
	dialect string
	timeout int
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "database connection string (required)")
	cmd.Flags().StringVar(&f.db, "db", "", "database name as recorded in the configuration row (required)")
	cmd.Flags().StringVar(&f.dialect, "dialect", "mysql", "SQL dialect: mysql or postgresql")
	cmd.Flags().IntVar(&f.timeout, "timeout", 30, "connection timeout in seconds")
}

func (f *connectionFlags) driverName() string {
	if f.dialect == string(dialect.PostgreSQL) {
		return "postgres"
	}
	return "mysql"
}

func openEngine(ctx context.Context, f *connectionFlags) (*engine.Engine, error) {
	if f.dsn == "" {
		return nil, fmt.Errorf("--dsn is required")
	}
	if f.db == "" {
		return nil, fmt.Errorf("--db is required")
	}
	e, err := engine.New(dialect.Type(f.dialect), f.db)
	if err != nil {
		return nil, err
	}
	if err := e.Connect(ctx, f.driverName(), f.dsn); err != nil {
		return nil, err
	}
	return e, nil
}

func withTimeout(seconds int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
}

func loadSource(path string) (*source.Source, error) {
	if path == "" {
		return nil, fmt.Errorf("--source is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}
	return source.Parse(data)
}

func main() {
	root := &cobra.Command{
		Use:   "alphadb",
		Short: "Relational schema version-management engine",
	}

	root.AddCommand(connectCmd())
	root.AddCommand(initCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(updateCmd())
	root.AddCommand(vacateCmd())
	root.AddCommand(verifyCmd())
	root.AddCommand(consolidateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func connectCmd() *cobra.Command {
	flags := &connectionFlags{}
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Verify connectivity to the target database",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(flags.timeout)
			defer cancel()
			e, err := openEngine(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Println("connected")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func initCmd() *cobra.Command {
	flags := &connectionFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration table/row if absent",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(flags.timeout)
			defer cancel()
			e, err := openEngine(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.Init(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("table created: %v, row created: %v\n", result.TableCreated, result.RowCreated)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func statusCmd() *cobra.Command {
	flags := &connectionFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the recorded lifecycle state of the database",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(flags.timeout)
			defer cancel()
			e, err := openEngine(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			status, err := e.Status(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
	flags.register(cmd)
	return cmd
}

func updateCmd() *cobra.Command {
	flags := &connectionFlags{}
	var sourcePath, target, toleratedLevel string
	var noData, noVerify bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Advance the database to the target (or latest) version",
		RunE: func(_ *cobra.Command, _ []string) error {
			src, err := loadSource(sourcePath)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(flags.timeout)
			defer cancel()
			e, err := openEngine(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.Update(ctx, src, target, noData, !noVerify, verify.ToleratedLevel(toleratedLevel))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sourcePath, "source", "", "path to the version-source JSON document (required)")
	cmd.Flags().StringVar(&target, "target", "", "target version (defaults to the latest version in the source)")
	cmd.Flags().BoolVar(&noData, "no-data", false, "skip seed-data inserts")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip verification before executing")
	cmd.Flags().StringVar(&toleratedLevel, "tolerated-verification-level", string(verify.ToleratedHigh), "low, high, critical, or all")
	return cmd
}

func vacateCmd() *cobra.Command {
	flags := &connectionFlags{}
	cmd := &cobra.Command{
		Use:   "vacate",
		Short: "Drop every table in the current schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(flags.timeout)
			defer cancel()
			e, err := openEngine(ctx, flags)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Vacate(ctx)
		},
	}
	flags.register(cmd)
	return cmd
}

func verifyCmd() *cobra.Command {
	var sourcePath, dialectName string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report verification issues found in a version source",
		RunE: func(_ *cobra.Command, _ []string) error {
			src, err := loadSource(sourcePath)
			if err != nil {
				return err
			}
			d, err := dialect.GetDialect(dialect.Type(dialectName))
			if err != nil {
				return err
			}
			issues := verify.Source(src, d.Generator().CompatibilityRules())
			if len(issues) == 0 {
				fmt.Println("no issues found")
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("%s %s (%s)\n", severityPrefix(issue.Level), issue.Message, joinTrace(issue.Trace))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "path to the version-source JSON document (required)")
	cmd.Flags().StringVar(&dialectName, "dialect", "mysql", "SQL dialect: mysql or postgresql")
	return cmd
}

func consolidateCmd() *cobra.Command {
	var sourcePath string
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Print the single-version document equivalent to a version source",
		RunE: func(_ *cobra.Command, _ []string) error {
			src, err := loadSource(sourcePath)
			if err != nil {
				return err
			}
			result, err := consolidate.VersionSource(src)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "path to the version-source JSON document (required)")
	return cmd
}

func joinTrace(trace []string) string {
	out := ""
	for i, t := range trace {
		if i > 0 {
			out += "->"
		}
		out += t
	}
	return out
}

func severityPrefix(level verify.Level) string {
	switch level {
	case verify.Critical:
		return red("[CRITICAL]")
	case verify.High:
		return yellow("[HIGH]")
	default:
		return "[LOW]"
	}
}

func red(s string) string    { return "\x1b[31m" + s + "\x1b[0m" }
func yellow(s string) string { return "\x1b[33m" + s + "\x1b[0m" }
