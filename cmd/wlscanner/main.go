// Command wlscanner is the build-time code generator of spec.md §4.2: it
// reads one or more Wayland protocol XML schemas and emits Go dispatch
// glue via internal/codegen. The checked-in internal/proto package is
// written by hand and is not this tool's output.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waylandd/waylandd/internal/codegen"
	"github.com/waylandd/waylandd/internal/schema"
)

var (
	outPath     string
	packageName string
	implemented []string
)

var rootCmd = &cobra.Command{
	Use:   "wlscanner <schema.xml> [schema.xml...]",
	Short: "Generate dispatch glue from Wayland protocol XML",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		implSet := make(map[string]bool, len(implemented))
		for _, name := range implemented {
			implSet[name] = true
		}

		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("wlscanner: create %s: %w", outPath, err)
			}
			defer f.Close()
			out = f
		}

		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("wlscanner: open %s: %w", path, err)
			}
			proto, err := schema.Read(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("wlscanner: %s: %w", path, err)
			}

			src, err := codegen.Generate(proto, codegen.Options{
				Package:     packageName,
				Implemented: implSet,
			})
			if err != nil {
				return fmt.Errorf("wlscanner: %s: %w", path, err)
			}
			if _, err := out.Write(src); err != nil {
				return fmt.Errorf("wlscanner: write output: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to stdout)")
	rootCmd.Flags().StringVar(&packageName, "package", "proto", "generated package name")
	rootCmd.Flags().StringSliceVar(&implemented, "implemented", nil, "comma-separated interface names to restrict generation to (default: all)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
