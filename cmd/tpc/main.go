// Command tpc compiles a single TPC source file to NASM x86-64
// assembly.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/session"
)

var (
	outputPath string
	showTree   bool
	showTables bool
	runAfter   bool
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:   "tpc [file]",
		Short: "Compile a TPC source file to NASM x86-64 assembly",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	root.Flags().StringVarP(&outputPath, "output", "o", "", "output .asm path (default: derived from the input filename)")
	root.Flags().BoolVarP(&showTree, "tree", "t", false, "dump the parsed AST to stderr before compiling")
	root.Flags().BoolVarP(&showTables, "symtabs", "s", false, "dump the symbol table to stderr before compiling")
	root.Flags().BoolVar(&runAfter, "run", false, "assemble, link with nasm/ld, and execute the result")
	root.Flags().BoolVar(&debug, "debug", false, "enable verbose pipeline tracing on stderr")

	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		os.Exit(session.ExitOtherError)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logrus.SetOutput(os.Stderr)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	filename, src, err := readSource(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(session.ExitOtherError)
	}
	logrus.WithField("file", filename).Debug("read source")

	sess := session.New(filename)

	if !sess.Parse(src) {
		os.Exit(session.ExitParseError)
	}
	logrus.Debug("parse complete")

	if showTree {
		ast.Print(os.Stderr, sess.Tree)
	}

	sess.BuildAndCheck()
	logrus.WithFields(logrus.Fields{
		"errors":   sess.Sink.ErrorCount(),
		"warnings": sess.Sink.WarningCount(),
		"notes":    sess.Sink.NoteCount(),
	}).Debug("symbol table and semantic check complete")

	if showTables {
		dumpSymtabs(os.Stderr, sess)
	}

	if sess.Sink.FatalError() {
		os.Exit(session.ExitCompileError)
	}

	asmPath := outputPath
	if asmPath == "" {
		asmPath = deriveOutputPath(filename)
	}
	out, err := os.Create(asmPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(session.ExitOtherError)
	}
	genErr := sess.Generate(out)
	closeErr := out.Close()
	if genErr != nil {
		fmt.Fprintf(os.Stderr, "codegen error: %v\n", genErr)
		os.Exit(session.ExitOtherError)
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		os.Exit(session.ExitOtherError)
	}
	logrus.WithField("path", asmPath).Debug("assembly written")

	if runAfter {
		os.Exit(assembleLinkRun(asmPath))
	}
	return nil
}

func readSource(args []string) (filename string, src []byte, err error) {
	if len(args) == 0 {
		data, readErr := io.ReadAll(os.Stdin)
		return "<stdin>", data, readErr
	}
	filename = args[0]
	data, readErr := os.ReadFile(filename)
	return filename, data, readErr
}

// deriveOutputPath strips any directory prefix and the file extension
// (whatever it is) and appends ".asm", or falls back to "_anonymous"
// when compiling from stdin.
func deriveOutputPath(filename string) string {
	if filename == "<stdin>" {
		return "_anonymous.asm"
	}
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".asm"
}

func dumpSymtabs(w *os.File, sess *session.Session) {
	fmt.Fprintln(w, "-- globals --")
	for _, e := range sess.Globals.Entries() {
		fmt.Fprintf(w, "  %-12s %-18s addr=%-4d size=%-3d used=%v\n", e.Name, e.Type, e.Address, e.Size, e.Used)
	}
	fmt.Fprintln(w, "-- functions --")
	for _, fn := range sess.Funcs.Funcs() {
		fmt.Fprintf(w, "  %s -> %s (params=%d, locals=%d bytes)\n",
			fn.Name, fn.ReturnType, fn.Parameters.Len(), fn.Locals.TotalBytes)
	}
}

// assembleLinkRun implements the --run flag: assemble with nasm,
// link with ld, execute, and propagate the child's exit code.
func assembleLinkRun(asmPath string) int {
	objPath := strings.TrimSuffix(asmPath, filepath.Ext(asmPath)) + ".o"
	binPath := strings.TrimSuffix(asmPath, filepath.Ext(asmPath))
	defer os.Remove(objPath)
	defer os.Remove(binPath)

	nasm := exec.Command("nasm", "-f", "elf64", "-o", objPath, asmPath)
	nasm.Stdout, nasm.Stderr = os.Stdout, os.Stderr
	if err := nasm.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return session.ExitOtherError
	}

	ld := exec.Command("ld", "-o", binPath, objPath)
	ld.Stdout, ld.Stderr = os.Stdout, os.Stderr
	if err := ld.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return session.ExitOtherError
	}

	run := exec.Command(binPath)
	run.Stdin, run.Stdout, run.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := run.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return session.ExitOtherError
	}
	return session.ExitOK
}
