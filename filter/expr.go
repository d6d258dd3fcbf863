package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/grister/grist"
)

// Program is a compiled filter expression. It is safe for concurrent use.
type Program struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// Expression returns the source expression
func (p *Program) Expression() string {
	return p.expression
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache keeps up to size compiled programs
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithFunctions adds helper functions callable from expressions
func WithFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// Compiler compiles expressions against the record environment
type Compiler struct {
	helpers map[string]any
	cache   *lruCache
}

// NewCompiler creates a Compiler with the built-in helpers
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{helpers: helperFunctions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles a boolean expression
func (c *Compiler) Compile(expression string) (*Program, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.compileEnv()),
		expr.AllowUndefinedVariables(), // columns are only known at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	p := &Program{expression: expression, program: program, helpers: c.helpers}
	if c.cache != nil {
		c.cache.Put(expression, p)
	}
	return p, nil
}

// compileEnv declares the helpers and record variables with their types
func (c *Compiler) compileEnv() map[string]any {
	env := maps.Clone(c.helpers)
	env["id"] = int64(0)
	env["fields"] = map[string]any{}
	env["has"] = func(string) bool { return false }
	return env
}

// Compile compiles an expression with the default helpers
func Compile(expression string) (*Program, error) {
	return NewCompiler().Compile(expression)
}

// Match evaluates the program against one record. A nil result does not
// match; a run-time failure, such as comparing a missing column with a
// number, returns an *EvaluationError.
func (p *Program) Match(record grist.Record) (bool, error) {
	result, err := expr.Run(p.program, p.environment(record))
	if err != nil {
		return false, &EvaluationError{Expression: p.expression, RecordID: record.ID, Err: err}
	}
	matched, ok := result.(bool)
	return ok && matched, nil
}

// environment exposes the columns as variables. Helpers and id win over
// columns with the same name; those stay reachable through fields.
func (p *Program) environment(record grist.Record) map[string]any {
	env := make(map[string]any, len(record.Fields)+len(p.helpers)+2)
	maps.Copy(env, record.Fields)
	maps.Copy(env, p.helpers)

	fields := record.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	env["fields"] = fields
	env["id"] = record.ID
	env["has"] = func(column string) bool {
		return !isEmpty(fields[column])
	}
	return env
}

func helperFunctions() map[string]any {
	return map[string]any{
		// case-insensitive substring match
		"includes": func(s, sub string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
		},
		"daysSince": func(epoch float64) int {
			return int(time.Since(time.Unix(int64(epoch), 0)).Hours() / 24)
		},
		"epoch": func(date string) float64 {
			t, err := time.Parse(time.DateOnly, date)
			if err != nil {
				return 0
			}
			return float64(t.Unix())
		},
	}
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}
