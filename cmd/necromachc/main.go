// Command necromachc drives the Mach lowering pipeline end to end: it
// loads a program description, runs Pass 1 through Pass 4
// (pkg/machdriver), and either reports the lowering's diagnostics or
// dumps the resulting Mach IR.
//
// Grounded on cmd/ralph-cc/main.go's own CLI architecture: a
// newRootCmd(out, errOut io.Writer) *cobra.Command factory (so Execute
// never touches os.Stdout/os.Stderr directly, keeping the command
// testable), package-level debug-flag bool vars, and a RunE closure
// that dispatches to one doXxx function per debug flag, each of which
// re-derives the pass chain up through its own stage and prints via
// that stage's own printer to both a derived output file and stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/necrolang/necro-mach/pkg/arena"
	"github.com/necrolang/necro-mach/pkg/bodygen"
	"github.com/necrolang/necro-mach/pkg/coreast"
	"github.com/necrolang/necro-mach/pkg/datalayout"
	"github.com/necrolang/necro-mach/pkg/fixture"
	"github.com/necrolang/necro-mach/pkg/mach"
	"github.com/necrolang/necro-mach/pkg/machdriver"
	"github.com/necrolang/necro-mach/pkg/machprint"
	"github.com/necrolang/necro-mach/pkg/statediscovery"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Debug flags for dumping intermediate passes.
var (
	dLayout bool
	dState  bool
	dBody   bool
	dMach   bool
)

// Pipeline configuration flags.
var (
	wordSize int
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that should also accept
// CompCert-style single-dash spelling (-dmach as well as --dmach).
var debugFlagNames = []string{"dlayout", "dstate", "dbody", "dmach"}

// normalizeFlags rewrites single-dash debug flags to double-dash so
// pflag's parser accepts them.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range debugFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "necromachc [file]",
		Short: "necromachc lowers a Core program fixture to Mach IR",
		Long: `necromachc loads a coreast.Program described as a YAML fixture
and runs it through the Mach lowering pipeline: Data Layout, State
Discovery, Body Lowering, and Main Synthesis.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			filename := args[0]

			switch {
			case dLayout:
				return doLayout(filename, out, errOut)
			case dState:
				return doState(filename, out, errOut)
			case dBody:
				return doBody(filename, out, errOut)
			case dMach:
				return doMach(filename, out, errOut)
			default:
				return doCompile(filename, out, errOut)
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dLayout, "dlayout", false, "Dump Pass 1 (Data Layout Lowerer) output")
	rootCmd.Flags().BoolVar(&dState, "dstate", false, "Dump Pass 2 (State Discovery) output")
	rootCmd.Flags().BoolVar(&dBody, "dbody", false, "Dump Pass 3 (Body Lowerer) output")
	rootCmd.Flags().BoolVar(&dMach, "dmach", false, "Dump the fully lowered Mach program")
	rootCmd.Flags().IntVar(&wordSize, "word-size", 8, "Target machine word size in bytes")

	return rootCmd
}

// loadProgram reads filename as a fixture YAML file into a coreast.Program.
func loadProgram(filename string) (*coreast.Program, error) {
	prog, err := fixture.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("necromachc: loading %s: %w", filename, err)
	}
	return prog, nil
}

// createOutput creates outputFilename, returning it alongside out/errOut
// so callers can print to both the derived file and stdout in one pass.
func createOutput(outputFilename string, errOut io.Writer) (*os.File, error) {
	f, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "necromachc: error creating %s: %v\n", outputFilename, err)
		return nil, err
	}
	return f, nil
}

func derivedOutputFilename(filename, suffix string) string {
	ext := ".yaml"
	if strings.HasSuffix(filename, ext) {
		return filename[:len(filename)-len(ext)] + suffix
	}
	return filename + suffix
}

// doLayout runs Pass 1 alone and dumps the resulting Mach program: the
// data types' structs and their constructors' mk functions (no machine
// defs exist yet at this stage).
func doLayout(filename string, out, errOut io.Writer) error {
	prog, err := loadProgram(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}

	machProg := emptyMachProgram()
	layout := datalayout.Lower(prog, machProg)
	for _, d := range layout.Diagnostics {
		fmt.Fprintf(errOut, "necromachc: data layout: %s\n", d.Error())
	}

	return printToFileAndStdout(derivedOutputFilename(filename, ".layout.mach"), machProg, out, errOut)
}

// doState runs Pass 1 and Pass 2, dumping the resulting machine defs'
// state classifications alongside Pass 1's layout.
func doState(filename string, out, errOut io.Writer) error {
	prog, err := loadProgram(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}

	machProg := emptyMachProgram()
	layout := datalayout.Lower(prog, machProg)
	result := statediscovery.Discover(prog, layout, machProg)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(errOut, "necromachc: state discovery: %s\n", d.Error())
	}

	return printToFileAndStdout(derivedOutputFilename(filename, ".state.mach"), machProg, out, errOut)
}

// doBody runs Pass 1 through Pass 3, dumping every function body
// Body Lowering produced.
func doBody(filename string, out, errOut io.Writer) error {
	prog, err := loadProgram(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}

	machProg := emptyMachProgram()
	layout := datalayout.Lower(prog, machProg)
	state := statediscovery.Discover(prog, layout, machProg)
	result := bodygen.Lower(prog, layout, state, coreast.NewNecroBase(), machProg)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(errOut, "necromachc: body lowering: %s\n", d.Error())
	}

	return printToFileAndStdout(derivedOutputFilename(filename, ".body.mach"), machProg, out, errOut)
}

// doMach and doCompile both run the full pipeline via machdriver.Compile;
// doMach additionally dumps the resulting program.
func doMach(filename string, out, errOut io.Writer) error {
	machProg, err := compileFile(filename, errOut)
	if err != nil {
		return err
	}
	return printToFileAndStdout(derivedOutputFilename(filename, ".mach"), machProg, out, errOut)
}

// doCompile runs the full pipeline and reports success or failure
// without dumping IR, mirroring ralph-cc's plain "compiling %s" default
// action when no debug flag is given.
func doCompile(filename string, out, errOut io.Writer) error {
	_, err := compileFile(filename, errOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "necromachc: lowered %s\n", filename)
	return nil
}

func compileFile(filename string, errOut io.Writer) (*mach.Program, error) {
	prog, err := loadProgram(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, err
	}

	machProg, diags, err := machdriver.Compile(prog, coreast.NewNecroBase(), arena.NewIntern(), wordSize)
	if err != nil {
		fmt.Fprintf(errOut, "necromachc: compilation failed: %v\n", err)
		return nil, err
	}
	for _, d := range diags {
		fmt.Fprintf(errOut, "necromachc: %s\n", d.Error())
	}
	return machProg, nil
}

func emptyMachProgram() *mach.Program {
	return mach.NewProgramWithIntern(wordSize, arena.NewIntern())
}

func printToFileAndStdout(outputFilename string, machProg *mach.Program, out, errOut io.Writer) error {
	outFile, err := createOutput(outputFilename, errOut)
	if err != nil {
		return err
	}
	defer outFile.Close()

	machprint.NewPrinter(outFile).PrintProgram(machProg)
	machprint.NewPrinter(out).PrintProgram(machProg)
	return nil
}
