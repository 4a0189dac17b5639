package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	verr "github.com/sergey-tihon/facio/error"
	"github.com/sergey-tihon/facio/grammar"
	"github.com/sergey-tihon/facio/spec"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar description into a parsing table",
		Example: `  facio compile grammar.json -o grammar-report.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var descPath string
	if len(args) > 0 {
		descPath = args[0]
	}

	desc, err := readGrammarDescription(descPath)
	if err != nil {
		return err
	}

	_, report, err := grammar.Compile(desc)
	if err != nil {
		return &verr.DescError{
			Cause: err,
			Path:  descPath,
		}
	}

	err = writeReport(report, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("Cannot write an output file: %w", err)
	}

	var conflictCount int
	for _, s := range report.States {
		conflictCount += len(s.SRConflict) + len(s.RRConflict)
	}
	if conflictCount > 0 {
		fmt.Fprintf(os.Stderr, "%v conflicts\n", conflictCount)
	}

	return nil
}

func readGrammarDescription(path string) (*spec.GrammarDescription, error) {
	var src io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("Cannot open the grammar description %s: %w", path, err)
		}
		defer f.Close()
		src = f
	} else {
		src = os.Stdin
	}

	d, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	desc := &spec.GrammarDescription{}
	err = json.Unmarshal(d, desc)
	if err != nil {
		return nil, &verr.DescError{
			Cause: err,
			Path:  path,
		}
	}

	return desc, nil
}

func writeReport(report *spec.Report, path string) error {
	var w io.Writer
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%v\n", string(b))

	return nil
}
