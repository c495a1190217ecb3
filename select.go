package dvo

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// Predicate is a compiled selection expression. It decides, per variable
// binding, whether a path update applies to a given document. Expressions
// see the document as `doc` (a map of field names) and the current loop
// variable bindings as `vars` (variable name to map key or array index).
type Predicate struct {
	expr string
	prg  cel.Program
}

var (
	selEnvOnce sync.Once
	selEnv     *cel.Env
	selEnvErr  error

	selCache sync.Map // map[string]cel.Program
)

func selectionEnv() (*cel.Env, error) {
	selEnvOnce.Do(func() {
		selEnv, selEnvErr = cel.NewEnv(
			cel.Declarations(
				decls.NewVar("doc", decls.NewMapType(decls.String, decls.Dyn)),
				decls.NewVar("vars", decls.NewMapType(decls.String, decls.Dyn)),
			),
		)
	})
	return selEnv, selEnvErr
}

// ParseSelection compiles a selection expression. Compiled programs are
// cached per expression string.
func ParseSelection(expr string) (*Predicate, error) {
	if v, ok := selCache.Load(expr); ok {
		return &Predicate{expr: expr, prg: v.(cel.Program)}, nil
	}
	env, err := selectionEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &PathSyntaxError{Expr: expr, Msg: issues.Err().Error()}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, &PathSyntaxError{Expr: expr, Msg: err.Error()}
	}
	selCache.Store(expr, prg)
	return &Predicate{expr: expr, prg: prg}, nil
}

func (p *Predicate) String() string { return p.expr }

// ResultEntry records the verdict of a predicate for one variable binding.
type ResultEntry struct {
	Variables VariableMap
	Match     bool
}

type ResultList []ResultEntry

// Contains evaluates the predicate against the document once per binding.
// An empty bindings slice evaluates once with no variables bound.
func (p *Predicate) Contains(doc *Document, bindings []VariableMap) (ResultList, error) {
	docMap := doc.AsInterface()
	if len(bindings) == 0 {
		bindings = []VariableMap{nil}
	}
	out := make(ResultList, 0, len(bindings))
	for _, vm := range bindings {
		match, err := p.eval(docMap, vm)
		if err != nil {
			return nil, err
		}
		out = append(out, ResultEntry{Variables: vm, Match: match})
	}
	return out, nil
}

func (p *Predicate) eval(docMap any, vm VariableMap) (bool, error) {
	vars := make(map[string]any, len(vm))
	for name, iv := range vm {
		if iv.Key != nil {
			vars[name] = iv.Key.AsInterface()
		} else {
			vars[name] = int64(iv.Index)
		}
	}
	out, _, err := p.prg.Eval(map[string]any{
		"doc":  docMap,
		"vars": vars,
	})
	if err != nil {
		return false, fmt.Errorf("selection %q: %w", p.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("selection %q: expression must yield a boolean, got %T", p.expr, out.Value())
	}
	return b, nil
}
