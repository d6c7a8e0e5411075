// Package repl implements the interactive line-editor loop described in
// spec.md §6: prompt, parse, evaluate, print, repeated until end-of-input
// or an explicit (exit n). Reading lines and detecting a non-interactive
// pipe are the host services the language itself treats as external
// (spec.md §1); mattn/go-isatty is how the prompt decides whether to
// print itself at all.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"benzl/internal/builtin"
	"benzl/internal/errors"
	"benzl/internal/eval"
	"benzl/internal/parser"
	"benzl/internal/value"
)

const prompt = "benzl> "

// ExitRequest is returned (via panic/recover) by the exit builtin to
// unwind straight out of the evaluator without every frame needing to
// check for it; Start and RunFile both recover it at the top level.
type ExitRequest struct{ Code int }

// Start runs the REPL against stdin/stdout, returning the process exit
// code.
func Start() int {
	ev := eval.New()
	env := ev.NewRootEnv()
	builtin.Register(env)
	installExit(env)

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	reader := bufio.NewReader(os.Stdin)

	for {
		if interactive {
			fmt.Print(prompt)
		}
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		if code, done := evalLine(ev, env, line, "<repl>"); done {
			return code
		}
		if err == io.EOF {
			break
		}
	}
	return 0
}

// RunFile implements the `prog file.ext [extra...]` CLI surface: binds
// launch-args, then delegates entirely to the load builtin so file
// resolution logic lives in exactly one place (spec.md §6).
func RunFile(path string, extra []string) int {
	ev := eval.New()
	env := ev.NewRootEnv()
	builtin.Register(env)
	installExit(env)

	args := make([]*value.Value, len(extra))
	for i, a := range extra {
		args[i] = value.NewString(a)
	}
	env.Def("launch-args", value.NewQExpr(args))

	call := value.NewSExpr([]*value.Value{value.NewSymbolValue("load"), value.NewString(path)})
	code := 0
	func() {
		defer func() {
			if r := recover(); r != nil {
				if req, ok := r.(ExitRequest); ok {
					code = req.Code
					return
				}
				panic(r)
			}
		}()
		result := env.Eval(call)
		if result.IsUncaughtError() {
			fmt.Fprintln(os.Stderr, result.Err.Error())
			code = 1
		}
	}()
	return code
}

// evalLine parses and evaluates one REPL line, printing its result or
// error, and reports whether an (exit n) call ended the session.
func evalLine(ev *eval.Evaluator, env *value.Environment, line, source string) (code int, done bool) {
	defer func() {
		if r := recover(); r != nil {
			if req, ok := r.(ExitRequest); ok {
				code, done = req.Code, true
				return
			}
			panic(r)
		}
	}()

	forms, perr := parser.Parse(line, source)
	if perr != nil {
		fmt.Fprintln(os.Stderr, perr.Error())
		return 0, false
	}
	// §6: a line prints only its last value, not every top-level form's.
	var last *value.Value
	for _, form := range forms.List {
		result := env.Eval(form)
		if result.IsUncaughtError() {
			fmt.Fprintln(os.Stderr, result.Err.Error())
			return 0, false
		}
		last = result
	}
	if last != nil {
		fmt.Println(value.Print(last))
	}
	return 0, false
}

// installExit adds the exit builtin, which unwinds the REPL/script loop
// via panic/recover rather than threading a sentinel Value through every
// evaluator frame.
func installExit(env *value.Environment) {
	env.Def("exit", value.NewBuiltin("exit", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		code := 0
		if len(args) == 1 {
			if !value.IsNumeric(args[0]) {
				return value.NewError(errors.New(errors.TypeError, pos, "exit: argument must be a number"))
			}
			code = int(value.AsInt(args[0]))
		} else if len(args) > 1 {
			return value.NewError(errors.New(errors.ArityError, pos, "exit: expected 0 or 1 arguments, got %d", len(args)))
		}
		panic(ExitRequest{Code: code})
	}))
}
