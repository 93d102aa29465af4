// tydic loads streamlet libraries from YAML project files, applies
// implementation descriptions to them and prints the resulting netlist.
//
//	tydic --project demo.yaml --impl top.impl --out netlist.yaml
//
// Implementation files listed in a project file are applied before those
// given with --impl, in order.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/birdayz/tydi/internal/netlist"
	"github.com/birdayz/tydi/internal/projectfile"
	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/kparse"
	"github.com/birdayz/tydi/pkg/log"
	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	projects  []string
	impls     []string
	out       string
	generated bool
	verbose   bool
	jsonLog   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	flagSet := pflag.NewFlagSet("tydic", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringArrayVar(&o.projects, "project", nil, "YAML project file declaring libraries (repeatable)")
	flagSet.StringArrayVar(&o.impls, "impl", nil, "implementation file to apply (repeatable)")
	flagSet.StringVarP(&o.out, "out", "o", "", "write the netlist to this file instead of stdout")
	flagSet.BoolVar(&o.generated, "generated", false, "include pattern generated streamlets in the netlist")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "log every node, connection and generated streamlet")
	flagSet.BoolVar(&o.jsonLog, "json-log", false, "write logs as JSON lines")

	if err := flagSet.Parse(args); err != nil {
		return o, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return o, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if len(o.projects) == 0 {
		return o, errors.New("at least one --project is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := log.NewLogr(log.WithOutput(stderr), log.WithJSON(o.jsonLog), log.WithVerbose(o.verbose))

	files, err := loadProjectFiles(ctx, o.projects)
	if err != nil {
		return err
	}
	project, err := projectfile.NewProject(files...)
	if err != nil {
		return err
	}

	var implPaths []string
	for _, f := range files {
		implPaths = append(implPaths, f.ImplementationPaths()...)
	}
	implPaths = append(implPaths, o.impls...)

	sources, err := readFiles(ctx, implPaths)
	if err != nil {
		return err
	}
	if err := implement(project, implPaths, sources, logger); err != nil {
		return err
	}

	var listingOpts []netlist.Option
	if o.generated {
		listingOpts = append(listingOpts, netlist.WithGenerated())
	}
	listing := netlist.FromProject(project, listingOpts...)

	if o.out == "" {
		return netlist.Write(stdout, listing)
	}
	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("create netlist file: %w", err)
	}
	if err := netlist.Write(f, listing); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// loadProjectFiles decodes all project files concurrently, keeping their
// order.
func loadProjectFiles(ctx context.Context, paths []string) ([]*projectfile.File, error) {
	files := make([]*projectfile.File, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := projectfile.Load(path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func readFiles(ctx context.Context, paths []string) ([]string, error) {
	contents := make([]string, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read implementation: %w", err)
			}
			contents[i] = string(b)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

// implement applies the sources in order. Later implementations may
// instantiate streamlets implemented by earlier ones.
func implement(project *kdesign.Project, paths, sources []string, logger logr.Logger) error {
	for i, src := range sources {
		path := paths[i]
		h, err := kparse.Implement(project, src,
			kparse.WithFilename(path),
			kparse.WithLogger(logger.WithName("kparse")),
		)
		if err != nil {
			if line, ok := kparse.Line(err); ok {
				return fmt.Errorf("%s:%d: %w", path, line, err)
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Info("Implemented streamlet", "streamlet", h.String(), "file", path)
	}
	return nil
}
