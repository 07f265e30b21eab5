package luabridge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/maine-ed-data/meschooldata-go/frame"
)

// registryKey is where the external package's module table lives in the Lua
// registry.
const registryKey = "meschooldata.package"

// CallError reports a failure raised inside the external package. The foreign
// error message passes through unmodified.
type CallError struct {
	EntryPoint string
	Err        error
}

func (e *CallError) Error() string {
	return e.EntryPoint + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Bridge holds the Lua state with the external package loaded. It is not safe
// for concurrent use; callers must serialize access.
type Bridge struct {
	state *lua.State
}

// Load creates a Lua state, opens the standard libraries, and loads the named
// package with require. searchPath lists extra directories (separated by ';')
// searched for the package ahead of the default package.path.
func Load(pkg, searchPath string) (*Bridge, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	if searchPath != "" {
		prependPackagePath(l, searchPath)
	}

	l.Global("require")
	l.PushString(pkg)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return nil, fmt.Errorf("load package %q: %w", pkg, err)
	}
	if l.TypeOf(-1) != lua.TypeTable {
		observed := typeName(l, -1)
		l.Pop(1)
		return nil, fmt.Errorf("load package %q: module is %s, not a table", pkg, observed)
	}
	l.SetField(lua.RegistryIndex, registryKey)

	return &Bridge{state: l}, nil
}

// FetchEnr calls the single-year fetch entry point and converts the result.
func (b *Bridge) FetchEnr(endYear int) (*frame.Frame, error) {
	if err := b.pushEntryPoint("fetch_enr"); err != nil {
		return nil, err
	}
	b.state.PushInteger(endYear)
	if err := b.protectedCall("fetch_enr", 1); err != nil {
		return nil, err
	}
	defer b.state.Pop(1)
	return b.toFrame(-1)
}

// FetchEnrMulti calls the multi-year fetch entry point with the years pushed
// as a Lua integer sequence.
func (b *Bridge) FetchEnrMulti(endYears []int) (*frame.Frame, error) {
	if err := b.pushEntryPoint("fetch_enr_multi"); err != nil {
		return nil, err
	}
	b.pushIntSequence(endYears)
	if err := b.protectedCall("fetch_enr_multi", 1); err != nil {
		return nil, err
	}
	defer b.state.Pop(1)
	return b.toFrame(-1)
}

// TidyEnr pushes the frame across the boundary, calls the reshape entry
// point, and converts the reshaped result back.
func (b *Bridge) TidyEnr(f *frame.Frame) (*frame.Frame, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrFrame)
	}
	if err := b.pushEntryPoint("tidy_enr"); err != nil {
		return nil, err
	}
	b.pushFrame(f)
	if err := b.protectedCall("tidy_enr", 1); err != nil {
		return nil, err
	}
	defer b.state.Pop(1)
	return b.toFrame(-1)
}

// AvailableYears calls the range-query entry point and normalizes its result
// through the year-range decoder chain.
func (b *Bridge) AvailableYears() (YearRange, error) {
	if err := b.pushEntryPoint("get_available_years"); err != nil {
		return YearRange{}, err
	}
	if err := b.protectedCall("get_available_years", 0); err != nil {
		return YearRange{}, err
	}
	defer b.state.Pop(1)
	return b.decodeYearRange(-1)
}

// protectedCall runs the entry point already on the stack with argCount
// arguments, leaving one result. On failure it pops the error value Lua
// leaves behind, keeping the long-lived state's stack balanced.
func (b *Bridge) protectedCall(entryPoint string, argCount int) error {
	if err := b.state.ProtectedCall(argCount, 1, 0); err != nil {
		b.state.Pop(1)
		return &CallError{EntryPoint: entryPoint, Err: err}
	}
	return nil
}

// pushEntryPoint leaves the named package function on top of the stack.
func (b *Bridge) pushEntryPoint(name string) error {
	l := b.state
	l.Field(lua.RegistryIndex, registryKey)
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return fmt.Errorf("package table missing from registry")
	}
	l.Field(-1, name)
	l.Remove(-2)
	if l.TypeOf(-1) != lua.TypeFunction {
		observed := typeName(l, -1)
		l.Pop(1)
		return fmt.Errorf("entry point %q is %s, not a function", name, observed)
	}
	return nil
}

// prependPackagePath puts dir/?.lua templates ahead of the default search
// path so the configured package location wins.
func prependPackagePath(l *lua.State, searchPath string) {
	templates := make([]string, 0, 2)
	for _, dir := range strings.Split(searchPath, ";") {
		if dir == "" {
			continue
		}
		templates = append(templates, filepath.Join(dir, "?.lua"))
	}
	if len(templates) == 0 {
		return
	}

	l.Global("package")
	l.Field(-1, "path")
	current, _ := l.ToString(-1)
	l.Pop(1)
	l.PushString(strings.Join(templates, ";") + ";" + current)
	l.SetField(-2, "path")
	l.Pop(1)
}
