// Command catalog manages a catalog of books kept in a JSON file.
//
// Without a subcommand it starts an interactive shell; the subcommands run a
// single operation and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"book-catalog/config"
	"book-catalog/library"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(config.Load()).ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	cfg   *config.Config
	store *library.Store
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Book catalog backed by a JSON file",
		Long: `catalog keeps a list of books (title, author, year, status) in a JSON file.
Run it without arguments for an interactive shell.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := term.IsTerminal(int(os.Stdin.Fd()))
			return newShell(os.Stdin, cmd.OutOrStdout(), a.store, prompt).run(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVarP(&cfg.File, "file", "f", cfg.File, "Catalog file (env CATALOG_FILE)")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env CATALOG_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&cfg.IDPolicy, "id-policy", cfg.IDPolicy, "Id assignment: next (highest id + 1) or count (number of books + 1) (env CATALOG_ID_POLICY)")
	cmd.AddCommand(
		a.newAddCmd(),
		a.newRemoveCmd(),
		a.newFindCmd(),
		a.newSearchCmd(),
		a.newListCmd(),
		a.newStatusCmd(),
		a.newExportCmd(),
		a.newVerifyCmd(),
	)
	return cmd
}

// open sets up logging and loads the store from the configured file.
func (a *app) open() error {
	level, err := a.cfg.Level()
	if err != nil {
		return err
	}
	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}
	logger := newLogger(level)
	slog.SetDefault(logger)
	a.store = library.NewStore(a.cfg.File, library.WithLogger(logger), library.WithIDPolicy(policy))
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book ID %q", s)
	}
	return id, nil
}

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <author> <year>",
		Short: "Add a book",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[2])
			}
			b, err := a.store.Create(args[0], args[1], year)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book '%s' with ID %d\n", b.Title, b.ID)
			return nil
		},
	}
}

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a book",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book with ID %d removed\n", id)
			return nil
		},
	}
}

func (a *app) newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := a.store.FindByID(id)
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), []library.Book{b})
			return nil
		},
	}
}

func (a *app) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "search <title|author|year> <value>",
		Short:     "Find books whose field equals value, ignoring case",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(library.FieldTitle), string(library.FieldAuthor), string(library.FieldYear)},
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := library.ParseField(args[0])
			if err != nil {
				return err
			}
			books, err := a.store.SearchByField(field, args[1])
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No books found with %s '%s'.\n", field, args[1])
				return nil
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all books",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.store.ListAll()
			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No books in catalog.")
				return nil
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <available|checked_out>",
		Short: "Change the status of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := a.store.UpdateStatus(id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status of book %d set to '%s'\n", id, b.Status)
			return nil
		},
	}
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		format string
		output string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as json, yaml or toon, or into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.store.ListAll()
			if dbPath != "" {
				if err := library.ExportSQLite(dbPath, books); err != nil {
					return fmt.Errorf("export to %s: %w", dbPath, err)
				}
				slog.Info("exported catalog", "db", dbPath, "books", len(books))
				return nil
			}
			f, err := library.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return library.Export(cmd.OutOrStdout(), books, f)
			}
			out, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := library.Export(out, books, f); err != nil {
				_ = out.Close()
				return err
			}
			// https://www.joeshaw.org/dont-defer-close-on-writable-files/
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(library.FormatJSON), "Output format: json, yaml, toon")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&dbPath, "sqlite", "", "Write the books table of this SQLite database instead")
	return cmd
}

func (a *app) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the catalog file for corruption or changes made outside the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Verify(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d book(s)\n", a.store.Path(), a.store.Len())
			return nil
		},
	}
}
