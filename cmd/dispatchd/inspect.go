package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sjc5/dispatch/pkg/config"
	"github.com/sjc5/dispatch/pkg/jsonutil"
	"github.com/sjc5/dispatch/pkg/tsgen"
)

// loadQuietApp builds the app for commands that only inspect it.
func loadQuietApp(configPath string, w io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Metrics = false
	cfg.Tracing = false
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelError}))
	return newApp(cfg, log)
}

func routesCmd(configPath *string) *cobra.Command {
	var asJSON, tree bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List registered endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := loadQuietApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			switch {
			case tree:
				a.dispatcher.Matcher().Print(out)
			case asJSON:
				s, err := jsonutil.ToPrettyString(a.dispatcher.Endpoints())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			default:
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "IDENTIFIER\tMETHODS\tTEMPLATE")
				for _, e := range a.dispatcher.Endpoints() {
					methods := strings.Join(e.Methods, ",")
					if methods == "" {
						methods = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Identifier, methods, e.Template)
				}
				return tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print endpoints as JSON")
	cmd.Flags().BoolVar(&tree, "tree", false, "print the matcher trie")
	return cmd
}

func urlCmd(configPath *string) *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "url <identifier> [param=value...]",
		Short: "Build the URL of an endpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadQuietApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			params, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			q, err := parseQuery(query)
			if err != nil {
				return err
			}
			u, err := a.mux.URL(args[0], params, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query pair key=value, repeatable")
	return cmd
}

func genTSCmd(configPath *string) *cobra.Command {
	var outDest string

	cmd := &cobra.Command{
		Use:   "gen-ts",
		Short: "Write TypeScript types for every endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadQuietApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			err = tsgen.Generate(tsgen.Opts{
				OutDest:   outDest,
				Endpoints: a.dispatcher.Endpoints(),
				GoHeader:  a.dispatcher.GoHeader(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(outDest, tsgen.FileName))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDest, "out", "o", ".", "output directory")
	return cmd
}

func parsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		pairs[k] = v
	}
	return pairs, nil
}

// parseQuery turns repeated keys into a []string value.
func parseQuery(args []string) (map[string]any, error) {
	q := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch prev := q[k].(type) {
		case nil:
			q[k] = v
		case string:
			q[k] = []string{prev, v}
		case []string:
			q[k] = append(prev, v)
		}
	}
	return q, nil
}
