package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jlvsolutions/WorldCities-sub000/internal/notify"
	"github.com/jlvsolutions/WorldCities-sub000/internal/schema"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func entityUse(verb, rest string) string {
	return verb + " <" + strings.Join(entityNames(), "|") + ">" + rest
}

// table resolves the column schema of e for the current session.
func (a *app) table(e sdk.Entity) schema.Table {
	d, _ := schema.For(e)
	return schema.Resolve(d, a.gate.Capabilities())
}

// parseParent reads "countries/3" into the parent entity and id.
func parseParent(s string) (sdk.Entity, string, error) {
	name, id, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || id == "" {
		return "", "", fmt.Errorf("parent %q: want <entity>/<id>, e.g. countries/3", s)
	}
	e, err := sdk.ParseEntity(name)
	return e, id, err
}

func newListCmd() *cobra.Command {
	var (
		pageNo, size          int
		sortCol, order        string
		filterCol, filterText string
		parent                string
	)
	cmd := &cobra.Command{
		Use:     entityUse("list", ""),
		Short:   "List one page of a collection",
		Args:    cobra.ExactArgs(1),
		Example: "  worldctl list cities --sort population --order desc\n  worldctl list cities --parent countries/3 --filter M",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			e, err := entityArg(args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if filterText != "" && filterCol == "" {
				filterCol = sortCol
			}
			var opts []listquery.Option
			if filterText != "" {
				opts = append(opts, listquery.WithFilter(filterCol, filterText))
			}
			q := listquery.Build(pageNo-1, size, sortCol, listquery.ParseSortOrder(order), opts...)

			ctx := cmd.Context()
			var p page
			if parent != "" {
				pe, id, perr := parseParent(parent)
				if perr != nil {
					return perr
				}
				p, err = children(ctx, a.client, pe, id, e, q)
			} else {
				p, err = opsFor(a.client, e).List(ctx, q)
			}
			if err != nil {
				return a.fail(ctx, err)
			}
			if out != outTable {
				return encode(cmd.OutOrStdout(), out, p)
			}
			renderPage(cmd.OutOrStdout(), a.table(e), p, false)
			return nil
		},
	}
	cmd.Flags().IntVar(&pageNo, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", listquery.DefaultPageSize, "Rows per page")
	cmd.Flags().StringVar(&sortCol, "sort", listquery.DefaultSortColumn, "Sort column")
	cmd.Flags().StringVar(&order, "order", "asc", "Sort order (asc|desc)")
	cmd.Flags().StringVar(&filterCol, "filter-column", "", "Column to filter on (defaults to the sort column)")
	cmd.Flags().StringVar(&filterText, "filter", "", "Keep rows whose column starts with this text")
	cmd.Flags().StringVar(&parent, "parent", "", "List the records of a parent, e.g. countries/3")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   entityUse("get", " <id>"),
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			e, err := entityArg(args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			rec, err := opsFor(a.client, e).Get(cmd.Context(), args[1])
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			if out != outTable {
				return encode(cmd.OutOrStdout(), out, rec)
			}
			renderRecord(cmd.OutOrStdout(), a.table(e), rec)
			return nil
		},
	}
}

// readInput reads the record document from path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(filepath.Clean(path))
}

func newCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     entityUse("create", ""),
		Short:   "Create a record from a YAML or JSON document",
		Args:    cobra.ExactArgs(1),
		Example: "  echo '{name: Boerne, lat: 29.79, lon: -98.73, countryId: 1}' | worldctl create city -f -",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entityArg(args)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			rec, err := opsFor(a.client, e).Create(ctx, raw)
			if err != nil {
				return a.fail(ctx, err)
			}
			a.reporter.Report(ctx, notify.Message{Type: notify.Info, Text: e.Singular() + " " + rec.Key() + " has been created."})
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Record document, - for stdin")
	mustFlag(cmd, "file")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     entityUse("update", " <id>"),
		Short:   "Change a record; the document only needs the changed fields",
		Args:    cobra.ExactArgs(2),
		Example: "  echo 'population: 20000' | worldctl update city 1 -f -",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entityArg(args)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			rec, err := opsFor(a.client, e).Update(ctx, args[1], raw)
			if err != nil {
				return a.fail(ctx, err)
			}
			a.reporter.Report(ctx, notify.Message{Type: notify.Info, Text: e.Singular() + " " + rec.Key() + " has been updated."})
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Record document, - for stdin")
	mustFlag(cmd, "file")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   entityUse("delete", " <id>"),
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entityArg(args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			if err := opsFor(a.client, e).Delete(ctx, args[1]); err != nil {
				return a.fail(ctx, err)
			}
			a.reporter.Report(ctx, notify.Message{Type: notify.Info, Text: e.Singular() + " " + args[1] + " has been deleted."})
			return nil
		},
	}
}
