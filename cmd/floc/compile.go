package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"floc/internal/compiler"
	"floc/internal/polyfill"
)

var (
	compileOutput    string
	compilePartial   bool
	compileBinary    bool
	compilePolyfills string
	compileTimings   bool
	compileJobs      int
)

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output path (single input only)")
	compileCmd.Flags().BoolVar(&compilePartial, "partial", false, "emit incomplete objects without validating them")
	compileCmd.Flags().BoolVar(&compileBinary, "binary", false, "emit the binary object format instead of text")
	compileCmd.Flags().StringVar(&compilePolyfills, "polyfills", "", "TOML file with extra polyfill mappings")
	compileCmd.Flags().BoolVar(&compileTimings, "timings", false, "show per-stage timing information")
	compileCmd.Flags().IntVar(&compileJobs, "jobs", 0, "maximum parallel compilations (0 = one per CPU)")
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <input.ll>...",
	Short: "Compile LLVM IR modules into FLO objects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	if compileOutput != "" && len(args) > 1 {
		return fmt.Errorf("-o cannot be used with %d inputs", len(args))
	}

	var polyfills *polyfill.Map
	if compilePolyfills != "" {
		polyfills = polyfill.NewMap()
		if err := polyfills.LoadOverlay(compilePolyfills); err != nil {
			return fmt.Errorf("loading polyfills: %w", err)
		}
	}

	results, err := compiler.CompileAll(cmd.Context(), args, compileJobs, polyfills)
	if err != nil {
		return err
	}

	var failures []error
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, res.Err)
			failures = append(failures, res.Err)
			continue
		}
		if err := emitObject(cmd, res); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, err)
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d inputs failed: %w", len(failures), len(results), errors.Join(failures...))
	}
	return nil
}

func emitObject(cmd *cobra.Command, res compiler.FileResult) error {
	if !compilePartial {
		if err := res.Object.Validate(); err != nil {
			return fmt.Errorf("object is incomplete, pass --partial to emit anyway: %w", err)
		}
	}

	out := outputName(res.Path)

	start := time.Now()
	var err error
	if compileBinary {
		err = res.Object.WriteFileBinary(out)
	} else {
		err = res.Object.WriteFile(out)
	}
	if err != nil {
		return err
	}
	res.Timings.Set(compiler.StageEmit, time.Since(start))

	if compileTimings {
		printTimings(cmd, res)
	}
	return nil
}

// outputName derives the output path from the input path unless -o was
// given: input.ll becomes input.flo, or input.flob for binary output.
func outputName(input string) string {
	if compileOutput != "" {
		return compileOutput
	}
	ext := ".flo"
	if compileBinary {
		ext = ".flob"
	}
	return strings.TrimSuffix(input, ".ll") + ext
}

func printTimings(cmd *cobra.Command, res compiler.FileResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", res.Path)
	for _, stage := range compiler.Stages {
		if !res.Timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "  %-9s %v\n", stage, res.Timings.Duration(stage))
	}
	fmt.Fprintf(out, "  %-9s %v\n", "total", res.Timings.Total())
}
