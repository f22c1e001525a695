package env

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands {{...}} references with thread-safe access to its variables.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	lookupEnv func(string) (string, bool)
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		lookupEnv: os.LookupEnv,
	}
}

// SetWarnFunc sets a function to be called for every unresolved reference
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		val, found := r.lookupEnv(name)
		return val, found && val != ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.variables[expr]
	return val, ok
}

func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}

		if strings.HasPrefix(expr, "$") {
			r.warn("unresolved environment variable: %s", expr)
		} else {
			r.warn("unresolved variable: %s", expr)
		}
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

// GetUnresolvedVariables lists unresolved references in order of appearance
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var unresolved []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if _, ok := r.lookup(expr); !ok {
			unresolved = append(unresolved, expr)
		}
	}
	return unresolved
}
