package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"floc/internal/llvmir"
	"floc/internal/pass"
	"floc/internal/pass/analysis"
	"floc/internal/source"
)

var checkVerbose bool

func init() {
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "list every mapped symbol")
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] <input.ll>...",
	Short: "Parse and analyze modules without generating output",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var failures []error
	for _, path := range args {
		if err := checkOne(cmd, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d inputs failed: %w", len(failures), len(args), errors.Join(failures...))
	}
	return nil
}

func checkOne(cmd *cobra.Command, path string) error {
	ctx, err := source.FromFile(path)
	if err != nil {
		return err
	}

	manager, err := pass.NewManager(analysis.NewBuildModuleMap())
	if err != nil {
		return err
	}
	res, err := manager.Run(ctx)
	if err != nil {
		return err
	}
	mm := pass.MustGet[*analysis.ModuleMap](res.Data, analysis.ModuleMapKey)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: module %q, %d functions (%d defined), %d globals (%d defined)\n",
		path, mm.Name,
		len(mm.Functions), countFunctionDefs(mm),
		len(mm.Globals), countGlobalDefs(mm))

	if !checkVerbose {
		return nil
	}
	for _, name := range sortedNames(mm.Functions) {
		info := mm.Functions[name]
		tag := ""
		if info.Intrinsic {
			tag = " intrinsic"
		}
		fmt.Fprintf(out, "  func %s: %s%s, %s\n", name, info.Type, tag, info.Kind)
	}
	for _, name := range sortedNames(mm.Globals) {
		info := mm.Globals[name]
		fmt.Fprintf(out, "  global %s: %s, %s\n", name, info.Type, info.Kind)
	}
	return nil
}

func countFunctionDefs(mm *analysis.ModuleMap) int {
	n := 0
	for _, info := range mm.Functions {
		if info.Kind == llvmir.EntryDefinition {
			n++
		}
	}
	return n
}

func countGlobalDefs(mm *analysis.ModuleMap) int {
	n := 0
	for _, info := range mm.Globals {
		if info.Kind == llvmir.EntryDefinition {
			n++
		}
	}
	return n
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
