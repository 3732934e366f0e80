package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/bytecode"
	"github.com/covenant-lang/covenant/compiler"
	"github.com/covenant-lang/covenant/diag"
	"github.com/covenant-lang/covenant/fingerprint"
	"github.com/covenant-lang/covenant/pipeline"
	"github.com/covenant-lang/covenant/scanner"
	"github.com/covenant-lang/covenant/vm"
)

func checkAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "check")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	sink := pipeline.Check(unit)
	reportDiagnostics(unit, sink)
	if sink.HasErrors() {
		os.Exit(1)
	}
	return nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "run")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	sink := pipeline.Check(unit)
	reportDiagnostics(unit, sink)
	if sink.HasErrors() {
		os.Exit(1)
	}
	mod, err := pipeline.Compile(unit)
	if err != nil {
		return err
	}
	return invokeAndPrint(ctx, cmd, mod)
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "build")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	sink := pipeline.Check(unit)
	reportDiagnostics(unit, sink)
	if sink.HasErrors() {
		os.Exit(1)
	}
	mod, err := pipeline.Compile(unit)
	if err != nil {
		return err
	}
	out := cmd.String("output")
	if out == "" {
		out = compiler.TrimSourceExt(path) + ".covc"
	}
	return pipeline.WriteCovc(mod, out)
}

func execAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: covenant exec <file.covc> [-c NAME] [--arg k=v]...")
	}
	mod, err := pipeline.ReadCovc(cmd.Args().First())
	if err != nil {
		return err
	}
	return invokeAndPrint(ctx, cmd, mod)
}

func invokeAndPrint(ctx context.Context, cmd *cli.Command, mod *bytecode.Module) error {
	args, kwargs, err := parseInvokeArgs(cmd)
	if err != nil {
		return err
	}
	result, m, err := pipeline.Invoke(ctx, mod, cmd.String("contract"), args, kwargs)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	for _, e := range m.Emitted() {
		fmt.Printf("emit %s\n", e.Name)
	}
	return nil
}

// parseInvokeArgs decodes every --arg k=v flag into a kwargs map. The
// positional slice it returns is always nil: CLI invocation passes
// everything as kwargs, which the VM's Invoke binds to parameters by
// name, so argument order on the command line never matters.
func parseInvokeArgs(cmd *cli.Command) ([]vm.Value, map[string]vm.Value, error) {
	kwargs := map[string]vm.Value{}
	for _, kv := range cmd.StringSlice("arg") {
		key, val, err := pipeline.ParseArg(kv)
		if err != nil {
			return nil, nil, err
		}
		kwargs[key] = val
	}
	return nil, kwargs, nil
}

func parseAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "parse")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	dumpFile(unit.File)
	return nil
}

func tokenizeAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "tokenize")
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	toks, err := scanner.Lex(string(src))
	if err != nil {
		return err
	}
	for _, t := range toks {
		fmt.Println(t.String())
	}
	return nil
}

func disasmAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "disasm")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	sink := pipeline.Check(unit)
	reportDiagnostics(unit, sink)
	if sink.HasErrors() {
		os.Exit(1)
	}
	mod, err := pipeline.Compile(unit)
	if err != nil {
		return err
	}
	dumpBytecode(mod)
	return nil
}

func fingerprintAction(ctx context.Context, cmd *cli.Command) error {
	path, err := requireFile(cmd, "fingerprint")
	if err != nil {
		return err
	}
	unit, err := pipeline.Parse(path)
	if err != nil {
		return err
	}
	for _, d := range unit.File.Decls {
		c, ok := d.(*ast.Contract)
		if !ok {
			continue
		}
		fp := fingerprint.Compute(c)
		fmt.Printf("contract %s:\n", c.Name)
		fmt.Printf("  reads:    %s\n", strings.Join(sortedKeys(fp.Reads), ", "))
		fmt.Printf("  mutates:  %s\n", strings.Join(sortedKeys(fp.Mutates), ", "))
		fmt.Printf("  calls:    %s\n", strings.Join(sortedKeys(fp.Calls), ", "))
		fmt.Printf("  emits:    %s\n", strings.Join(sortedKeys(fp.Emits), ", "))
		fmt.Printf("  recursion: %v  branching: %v  looping: %v\n", fp.HasRecursion, fp.HasBranching, fp.HasLooping)
		fmt.Printf("  intent hash: %s\n", fp.IntentHash(unit.File.Intent))
	}
	return nil
}

func requireFile(cmd *cli.Command, verb string) (string, error) {
	if cmd.NArg() < 1 {
		return "", fmt.Errorf("usage: covenant %s <file>", verb)
	}
	return cmd.Args().First(), nil
}

func reportDiagnostics(unit *pipeline.CompilationUnit, sink *diag.Sink) {
	color := diag.UseColor(os.Stderr.Fd())
	for _, d := range sink.All() {
		fmt.Fprint(os.Stderr, diag.Format(d, unit.Filename, unit.Source, color))
	}
}

func dumpFile(f *ast.File) {
	fmt.Printf("intent %q\nscope %s\nrisk %s\n", f.Intent, f.Scope, f.Risk)
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.Contract:
			fmt.Printf("contract %s(%d params) body=%v precondition=%v postcondition=%v on_failure=%v\n",
				n.Name, len(n.Params), n.Body != nil, n.HasPrecondition, n.HasPostcondition, n.HasOnFailure)
		case *ast.TypeDecl:
			fmt.Printf("type %s (%d fields)\n", n.Name, len(n.Fields))
		case *ast.SharedState:
			fmt.Printf("shared %s\n", n.Name)
		default:
			fmt.Printf("decl %T\n", n)
		}
	}
}

func dumpBytecode(mod *bytecode.Module) {
	for _, c := range mod.Contracts {
		fmt.Printf("contract %s @%d arity=%d locals=%d\n", c.Name, c.EntryOffset, c.Arity, c.NumLocals)
	}
	for i, ins := range mod.Instrs {
		fmt.Printf("%4d  %-14s %d %d %d\n", i, ins.Op, ins.Ops[0], ins.Ops[1], ins.Ops[2])
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
