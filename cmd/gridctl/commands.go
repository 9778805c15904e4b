package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridform/internal/dataservice"
	"github.com/JonMunkholm/gridform/internal/page"
	"github.com/JonMunkholm/gridform/internal/procedure"
	"github.com/JonMunkholm/gridform/internal/schema"
)

var errCallFailed = errors.New("call failed, see log for details")

func newCompileCmd(a *app) *cobra.Command {
	var (
		pageName  string
		comboInfo string
	)

	cmd := &cobra.Command{
		Use:   "compile [dir|file]",
		Short: "Compile page definitions and print the column descriptors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Pages.Dir
			if len(args) == 1 {
				path = args[0]
			}

			var options schema.OptionsProvider
			if comboInfo != "" {
				options = dataservice.ParseComboInfo(comboInfo)
			}

			pages, err := loadPages(path, options)
			if err != nil {
				return err
			}
			if pageName == "" {
				return a.printJSON(pages)
			}
			p, err := findPage(pages, pageName)
			if err != nil {
				return err
			}
			return a.printJSON(p)
		},
	}

	cmd.Flags().StringVarP(&pageName, "page", "p", "", "print only this page")
	cmd.Flags().StringVar(&comboInfo, "combo-info", "", "resolve combo indexes against a "+dataservice.ComboInfoField+" string")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		funcName  string
		dataNames []string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "query <page> [params...]",
		Short: "Run a query and print the named payloads",
		Long: "Run a query and print the named payloads. With --raw the payloads are\n" +
			"read straight from the response envelope instead of through grid sinks.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if raw {
				return a.queryRaw(cmd.Context(), svc, args, funcName, dataNames)
			}

			results := make(map[string][]any, len(dataNames))
			targets := make([]dataservice.Target, len(dataNames))
			for i, name := range dataNames {
				targets[i] = dataservice.Target{
					DataName: name,
					Sink: dataservice.GridSink(func(rows []any) {
						results[name] = rows
					}),
				}
			}

			ok := svc.LoadPage(cmd.Context(), dataservice.PageQuery{
				Path:     rpcPath(args[0]),
				FuncName: funcName,
				Params:   stringParams(args[1:]),
				Targets:  targets,
			})
			if !ok {
				return errCallFailed
			}
			if len(dataNames) == 1 {
				return a.printJSON(nonNil(results[dataNames[0]]))
			}
			return a.printJSON(results)
		},
	}

	cmd.Flags().StringVarP(&funcName, "func", "f", dataservice.DefaultQueryFunc, "remote function name")
	cmd.Flags().StringSliceVarP(&dataNames, "data", "d", []string{procedure.DataName(0)}, "payloads to print")
	cmd.Flags().BoolVar(&raw, "raw", false, "extract payloads from the envelope without grid sinks")
	return cmd
}

func (a *app) queryRaw(ctx context.Context, svc *dataservice.Service, args []string, funcName string, dataNames []string) error {
	env, err := svc.Query(ctx, &dataservice.QueryConfig{
		Path:     rpcPath(args[0]),
		FuncName: funcName,
		Params:   stringParams(args[1:]),
	}, nil)
	if err != nil {
		return err
	}
	if env == nil {
		return errCallFailed
	}

	if len(dataNames) == 1 {
		return a.printJSON(dataservice.ExtractDataContext(ctx, env, dataNames[0]))
	}
	results := make(map[string][]any, len(dataNames))
	for _, name := range dataNames {
		results[name] = dataservice.ExtractDataContext(ctx, env, name)
	}
	return a.printJSON(results)
}

func newSaveCmd(a *app) *cobra.Command {
	var (
		funcName  string
		rowsPath  string
		params    []string
		checkOnly bool
		noCheck   bool
	)

	cmd := &cobra.Command{
		Use:   "save <page>",
		Short: "Send rows to a page's save function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd.InOrStdin(), rowsPath)
			if err != nil {
				return err
			}

			if !noCheck {
				if err := a.checkRows(args[0], rows); err != nil {
					return err
				}
			}
			if checkOnly {
				fmt.Fprintf(a.out, "%d rows valid\n", len(rows))
				return nil
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			var saveErr error
			env, err := svc.Save(cmd.Context(), &dataservice.SaveConfig{
				Path:     rpcPath(args[0]),
				FuncName: funcName,
				Params:   stringParams(params),
				OnError: func(_ context.Context, err error, _ any) {
					saveErr = err
				},
			}, rows, nil)
			if err != nil {
				return err
			}
			if saveErr != nil {
				return saveErr
			}
			return a.printJSON(env)
		},
	}

	cmd.Flags().StringVarP(&funcName, "func", "f", dataservice.DefaultSaveFunc, "remote function name")
	cmd.Flags().StringVarP(&rowsPath, "rows", "r", "-", "JSON array of rows, or - for stdin")
	cmd.Flags().StringSliceVar(&params, "param", nil, "base parameters, in order")
	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "validate rows against the local page and stop")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "skip local validation")
	return cmd
}

func newCombosCmd(a *app) *cobra.Command {
	var (
		divCode string
		erpDB   string
		compile bool
	)

	cmd := &cobra.Command{
		Use:   "combos <page> [codes...]",
		Short: "Fetch combo option tables",
		Long: "Fetch combo option tables for the given codes. Without codes, the\n" +
			"page's own combo list is read from the local page directory.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := stringParams(args[1:])
			if len(codes) == 0 || compile {
				p, err := a.localPage(args[0], nil)
				if err != nil {
					return err
				}
				if len(codes) == 0 {
					codes = stringParams(p.Combos)
				}
			}
			if len(codes) == 0 {
				return fmt.Errorf("page %s declares no combos", args[0])
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			options := svc.LoadCombos(cmd.Context(), dataservice.ComboQuery{
				Path:    rpcPath(args[0]),
				DivCode: divCode,
				ERPDB:   erpDB,
				Codes:   codes,
			})
			if options == nil {
				return errCallFailed
			}

			if !compile {
				return a.printJSON(options)
			}
			p, err := a.localPage(args[0], options)
			if err != nil {
				return err
			}
			return a.printJSON(p)
		},
	}

	cmd.Flags().StringVar(&divCode, "div", "", "division code")
	cmd.Flags().StringVar(&erpDB, "erp", "", "ERP database name")
	cmd.Flags().BoolVar(&compile, "compile", false, "print the local page compiled against the fetched options")
	return cmd
}

// checkRows validates rows against the local definition of pageName, the
// same way the server does before saving.
func (a *app) checkRows(pageName string, rows []any) error {
	p, err := a.localPage(pageName, nil)
	if err != nil {
		return fmt.Errorf("%w (use --no-check to skip local validation)", err)
	}
	if _, err := procedure.PrepareRows(p, rows); err != nil {
		return errors.New(procedure.FormatUserError(err))
	}
	return nil
}

func (a *app) localPage(name string, options schema.OptionsProvider) (*page.Page, error) {
	pages, err := loadPages(a.cfg.Pages.Dir, options)
	if err != nil {
		return nil, err
	}
	return findPage(pages, name)
}

func loadPages(path string, options schema.OptionsProvider) ([]*page.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return page.LoadDirOptions(path, options)
	}
	p, err := page.LoadFileOptions(path, options)
	if err != nil {
		return nil, err
	}
	return []*page.Page{p}, nil
}

func findPage(pages []*page.Page, name string) (*page.Page, error) {
	for _, p := range pages {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", procedure.ErrUnknownPage, name)
}

func readRows(stdin io.Reader, path string) ([]any, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var rows []any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("no rows to save")
	}
	return rows, nil
}

func stringParams(args []string) []any {
	params := make([]any, len(args))
	for i, s := range args {
		params[i] = s
	}
	return params
}

func nonNil(rows []any) []any {
	if rows == nil {
		return []any{}
	}
	return rows
}
