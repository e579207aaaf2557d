// Package cli exposes the product collection as productsync subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/yourusername/productsync/internal/delivery/render"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/usecase"
)

// Runtime services a command operates on
type Runtime struct {
	Products usecase.ProductUseCase
	Parser   repository.ExcelParser
	RunBot   func(ctx context.Context) error
	Release  func()
}

// Options global flags; empty values keep the environment configuration
type Options struct {
	APIURL      string
	StoreDriver string
}

// Factory builds the runtime for one command invocation
type Factory func(ctx context.Context, opts Options) (*Runtime, error)

const descriptionFlag = "description"

// NewRootCommand creates the productsync command tree
func NewRootCommand(factory Factory) *cobra.Command {
	root := &cobra.Command{
		Use:   "productsync",
		Short: "Manage a local product catalog and synchronize it with a REST collection",
		Long: `Manage a local product catalog and synchronize it with a REST collection.

Products are stored locally first. "sync" pulls products that exist only on
the server and then pushes local-only products, one request at a time.
Edits and deletions stay local.`,
		SilenceUsage: true,
	}

	c := &commands{factory: factory}
	root.PersistentFlags().StringVar(&c.opts.APIURL, "api-url", "", "Remote collection URL (overrides API_URL)")
	root.PersistentFlags().StringVar(&c.opts.StoreDriver, "store", "", "Local store driver: sqlite, bolt, redis or memory (overrides STORE_DRIVER)")

	root.AddCommand(
		c.newListCommand(),
		c.newAddCommand(),
		c.newEditCommand(),
		c.newDeleteCommand(),
		c.newSyncCommand(),
		c.newClearCommand(),
		c.newImportCommand(),
		c.newExportCommand(),
		c.newBotCommand(),
	)
	return root
}

type commands struct {
	factory Factory
	opts    Options
}

func (c *commands) run(cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := c.factory(ctx, c.opts)
	if err != nil {
		return err
	}
	if rt.Release != nil {
		defer rt.Release()
	}
	return fn(ctx, rt)
}

func (c *commands) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local products with their sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				fmt.Fprint(cmd.OutOrStdout(), render.ProductList(rt.Products.List(ctx)))
				return nil
			})
		},
	}
}

func (c *commands) newAddCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		descriptionFlag: &cobraflags.StringFlag{
			Name:  descriptionFlag,
			Value: "",
			Usage: "Optional product description",
		},
	}

	cmd := &cobra.Command{
		Use:   "add <name> <price>",
		Short: "Add a local product",
		Example: `  productsync add "Mouse" 25000
  productsync add "Teclado" 180000 --description "mecánico"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := cmd.Flags().GetString(descriptionFlag)
			if err != nil {
				return err
			}
			in, err := productInput(args[0], args[1], description)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				p, err := rt.Products.Add(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), render.Product(p))
				return nil
			})
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (c *commands) newEditCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		descriptionFlag: &cobraflags.StringFlag{
			Name:  descriptionFlag,
			Value: "",
			Usage: "Product description; the current one is kept when omitted",
		},
	}

	cmd := &cobra.Command{
		Use:   "edit <id> <name> <price>",
		Short: "Edit a product locally, keeping its ids and sync status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := cmd.Flags().GetString(descriptionFlag)
			if err != nil {
				return err
			}
			in, err := productInput(args[1], args[2], description)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				if !cmd.Flags().Changed(descriptionFlag) {
					current, err := rt.Products.Get(ctx, args[0])
					if err != nil {
						return err
					}
					in.Description = current.Description
				}
				p, err := rt.Products.Edit(ctx, args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), render.Product(p))
				return nil
			})
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (c *commands) newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product locally; the server copy is left alone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				if err := rt.Products.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *commands) newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull remote products, then push local-only products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				report, err := rt.Products.Synchronize(ctx)
				if err != nil {
					return fmt.Errorf("synchronization failed: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), render.SyncReport(report))
				return nil
			})
		},
	}
}

func (c *commands) newClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every local product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the local store without --yes")
			}
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				if err := rt.Products.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All local products removed")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removal of all local products")
	return cmd
}

func (c *commands) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import products from the first sheet of an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				rows, err := rt.Parser.ParseProducts(ctx, args[0])
				if err != nil {
					return err
				}
				n, err := rt.Products.Import(ctx, rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products\n", n)
				return nil
			})
		},
	}
}

func (c *commands) newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the local collection to an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				products := rt.Products.List(ctx)

				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", args[0], err)
				}
				if err := rt.Parser.WriteProducts(ctx, f, products); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", len(products), args[0])
				return nil
			})
		},
	}
}

func (c *commands) newBotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the Telegram bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *Runtime) error {
				if rt.RunBot == nil {
					return errors.New("telegram bot is not configured")
				}
				return rt.RunBot(ctx)
			})
		},
	}
}

func productInput(name, price, description string) (entity.ProductInput, error) {
	value, err := cast.ToFloat64E(strings.ReplaceAll(strings.TrimSpace(price), ",", ""))
	if err != nil {
		return entity.ProductInput{}, &entity.ValidationError{Field: "price", Message: fmt.Sprintf("%q is not a number", price)}
	}
	return entity.ProductInput{Name: name, Price: value, Description: description}, nil
}
