package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/wasm"
)

// Wazero implements Engine using the wazero runtime.
//
// wazero resolves imports by instantiated module name. Each module is
// therefore recompiled with its imports rewritten to the (owner, export)
// pair of the externs it was linked against, and every instance is created
// under a fresh unique name.
type Wazero struct {
	runtime wazero.Runtime
	cfg     Config
	mu      sync.Mutex
	closed  bool
}

// NewWazero creates a new wazero-based engine. A nil cfg uses DefaultConfig.
func NewWazero(ctx context.Context, cfg *Config) (*Wazero, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var runtimeCfg wazero.RuntimeConfig
	if cfg.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		runtimeCfg = wazero.NewRuntimeConfig()
	}
	runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	Logger().Debug("wazero engine created",
		zap.Bool("interpreter", cfg.Interpreter),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages))

	return &Wazero{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     *cfg,
	}, nil
}

// WazeroModule is a module accepted by Wazero.Compile. It holds no wazero
// resources; each instantiation compiles its own rewritten copy.
type WazeroModule struct {
	parsed  *wasm.Module
	data    []byte
	imports []Import
}

// Imports implements Module.
func (m *WazeroModule) Imports() []Import {
	return m.imports
}

// Decoded returns the structural decode of the module.
func (m *WazeroModule) Decoded() *wasm.Module {
	return m.parsed
}

// WazeroInstance is an instance created by Wazero.
type WazeroInstance struct {
	module  api.Module
	name    string
	exports []Export
}

// Name implements Instance.
func (i *WazeroInstance) Name() string {
	return i.name
}

// Exports implements Instance.
func (i *WazeroInstance) Exports() []Export {
	return i.exports
}

func (i *WazeroInstance) export(name string) (linktest.Extern, bool) {
	for _, exp := range i.exports {
		if exp.Name == name {
			return exp.Extern, true
		}
	}
	return linktest.Extern{}, false
}

// Module returns the underlying wazero module.
func (i *WazeroInstance) Module() api.Module {
	return i.module
}

// Compile implements Engine.
//
// Bytes rejected by wasm.ParseModule are malformed. Bytes that decode but are
// rejected by wazero's compiler are invalid.
func (e *Wazero) Compile(ctx context.Context, data []byte) (Module, error) {
	parsed, err := wasm.ParseModule(data)
	if err != nil {
		return nil, errors.Malformed(err)
	}

	imports := make([]Import, len(parsed.Imports))
	for i, imp := range parsed.Imports {
		ext, err := parsed.ImportType(imp)
		if err != nil {
			return nil, errors.Invalid(err)
		}
		ext.Owner, ext.Name = imp.Module, imp.Name
		imports[i] = Import{Module: imp.Module, Name: imp.Name, Type: ext}
	}
	for _, exp := range parsed.Exports {
		if _, err := parsed.ExportType(exp); err != nil {
			return nil, errors.Invalid(err)
		}
	}

	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Unexpected(errors.PhaseCompile, err)
		}
		return nil, errors.Invalid(err)
	}

	closeCompiled(ctx, compiled)
	mod := &WazeroModule{parsed: parsed, data: data, imports: imports}

	Logger().Debug("module compiled",
		zap.Int("bytes", len(data)),
		zap.Int("imports", len(imports)),
		zap.Int("exports", len(parsed.Exports)))
	return mod, nil
}

// Instantiate implements Engine.
func (e *Wazero) Instantiate(ctx context.Context, mod Module, imports []*linktest.Extern) (Instance, error) {
	m, ok := mod.(*WazeroModule)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, fmt.Sprintf("module %T was not compiled by this engine", mod))
	}
	if len(imports) != len(m.imports) {
		return nil, errors.InvalidInput(errors.PhaseInstantiate,
			fmt.Sprintf("module has %d imports, got %d externs", len(m.imports), len(imports)))
	}

	if err := e.checkImports(m.imports, imports); err != nil {
		return nil, err
	}

	data := m.data
	if len(imports) > 0 {
		targets := make([]wasm.ImportTarget, len(imports))
		for i, ext := range imports {
			targets[i] = wasm.ImportTarget{Module: ext.Owner, Name: ext.Name}
		}
		rewritten, err := wasm.RewriteImports(m.data, targets)
		if err != nil {
			return nil, errors.Unexpected(errors.PhaseInstantiate, err)
		}
		data = rewritten
	}
	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.Unexpected(errors.PhaseInstantiate, err)
	}
	defer closeCompiled(ctx, compiled)

	name := "instance-" + uuid.NewString()
	cfg := wazero.NewModuleConfig().WithName(name).WithStartFunctions()
	apiMod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Unexpected(errors.PhaseInstantiate, err)
		}
		return nil, errors.Uninstantiable(name, err)
	}

	// wazero skips out of bounds element segments instead of failing. The
	// instance stays alive: segments written before the failing one may
	// already reference its functions.
	if err := e.checkSegments(m.parsed, imports); err != nil {
		Logger().Debug("segment out of bounds", zap.String("instance", name), zap.Error(err))
		return nil, errors.Uninstantiable(name, err)
	}

	exports, err := instanceExports(name, m.parsed, imports)
	if err != nil {
		return nil, errors.Unexpected(errors.PhaseInstantiate, err)
	}

	Logger().Debug("module instantiated", zap.String("instance", name), zap.Int("exports", len(exports)))
	return &WazeroInstance{module: apiMod, name: name, exports: exports}, nil
}

// instanceExports describes the exports of a new instance. An export of an
// imported entity is the extern it was linked against, exported under the
// instance's own export name.
func instanceExports(owner string, m *wasm.Module, imports []*linktest.Extern) ([]Export, error) {
	exports := make([]Export, 0, len(m.Exports))
	for _, exp := range m.Exports {
		if i, ok := importIndex(m, exp.Kind, exp.Idx); ok {
			exports = append(exports, Export{Name: exp.Name, Extern: *imports[i]})
			continue
		}
		ext, err := m.ExportType(exp)
		if err != nil {
			return nil, err
		}
		ext.Owner, ext.Name = owner, exp.Name
		exports = append(exports, Export{Name: exp.Name, Extern: ext})
	}
	return exports, nil
}

// importIndex maps an index in the kind's index space to the position of the
// import that defines it, if any.
func importIndex(m *wasm.Module, kind linktest.ExternKind, idx uint32) (int, bool) {
	var n uint32
	for i, imp := range m.Imports {
		if imp.Kind != kind {
			continue
		}
		if n == idx {
			return i, true
		}
		n++
	}
	return 0, false
}

// Invoke implements Engine.
func (e *Wazero) Invoke(ctx context.Context, inst Instance, name string, args []linktest.Value) ([]linktest.Value, error) {
	wi, err := e.instance(inst, errors.PhaseInvoke)
	if err != nil {
		return nil, err
	}

	ext, ok := wi.export(name)
	if !ok || ext.Kind != linktest.ExternFunc {
		return nil, errors.NotFound(errors.PhaseInvoke, "function", name)
	}
	// Calls go to the defining module. Looking up a re-exported host
	// function on the re-exporting module panics under the compiler engine.
	owner := e.lookup(ext.Owner)
	if owner == nil {
		return nil, errors.NotFound(errors.PhaseInvoke, "instance", ext.Owner)
	}
	fn := safeExportedFunction(owner, ext.Name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseInvoke, "function", name)
	}

	def := fn.Definition()
	params, err := toStack(name, def.ParamTypes(), args)
	if err != nil {
		return nil, err
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Unexpected(errors.PhaseInvoke, err)
		}
		return nil, errors.Trap(name, err)
	}
	return fromStack(def.ResultTypes(), results), nil
}

// ReadGlobal implements Engine.
func (e *Wazero) ReadGlobal(_ context.Context, inst Instance, name string) (linktest.Value, error) {
	wi, err := e.instance(inst, errors.PhaseRead)
	if err != nil {
		return linktest.Value{}, err
	}

	ext, ok := wi.export(name)
	if !ok || ext.Kind != linktest.ExternGlobal {
		return linktest.Value{}, errors.NotFound(errors.PhaseRead, "global", name)
	}
	owner := e.lookup(ext.Owner)
	if owner == nil {
		return linktest.Value{}, errors.NotFound(errors.PhaseRead, "instance", ext.Owner)
	}
	g := owner.ExportedGlobal(ext.Name)
	if g == nil {
		return linktest.Value{}, errors.NotFound(errors.PhaseRead, "global", name)
	}
	return fromRaw(linktest.ValueType(g.Type()), g.Get()), nil
}

// DefineHost implements Engine.
func (e *Wazero) DefineHost(ctx context.Context, host HostModule) (Instance, error) {
	name := host.Name + "-" + uuid.NewString()
	builder := e.runtime.NewHostModuleBuilder(name)

	exports := make([]Export, 0, len(host.Funcs))
	for _, f := range host.Funcs {
		ft := f.Type
		builder.NewFunctionBuilder().
			WithGoModuleFunction(hostHandler(f), apiTypes(ft.Params), apiTypes(ft.Results)).
			Export(f.Name)
		exports = append(exports, Export{Name: f.Name, Extern: linktest.Extern{
			Kind:  linktest.ExternFunc,
			Func:  &ft,
			Owner: name,
			Name:  f.Name,
		}})
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindUnexpected, err,
			fmt.Sprintf("define host module %q", host.Name))
	}

	Logger().Debug("host module defined", zap.String("instance", name), zap.Int("funcs", len(host.Funcs)))
	return &WazeroInstance{module: mod, name: name, exports: exports}, nil
}

func hostHandler(f HostFunc) api.GoModuleFunc {
	params := f.Type.Params
	results := f.Type.Results
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		args := fromStack(apiTypes(params), stack[:len(params)])
		out := f.Call(ctx, args)
		for i := range results {
			if i < len(out) {
				stack[i] = out[i].Bits
			} else {
				stack[i] = 0
			}
		}
	}
}

// Close implements Engine.
func (e *Wazero) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.runtime.Close(ctx)
}

func (e *Wazero) instance(inst Instance, phase errors.Phase) (*WazeroInstance, error) {
	wi, ok := inst.(*WazeroInstance)
	if !ok || wi == nil {
		return nil, errors.InvalidInput(phase, fmt.Sprintf("instance %T was not created by this engine", inst))
	}
	return wi, nil
}

// lookup returns the live module that owns an extern.
func (e *Wazero) lookup(owner string) api.Module {
	return e.runtime.Module(owner)
}

// safeExportedFunction wraps ExportedFunction with panic recovery for
// wazevo issues with re-exported imports.
func safeExportedFunction(mod api.Module, name string) (fn api.Function) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Debug("recovered panic in function lookup",
				zap.String("module", mod.Name()),
				zap.String("name", name),
				zap.Any("panic", r))
			fn = nil
		}
	}()
	return mod.ExportedFunction(name)
}

func closeCompiled(ctx context.Context, compiled wazero.CompiledModule) {
	if err := compiled.Close(ctx); err != nil {
		Logger().Debug("close compiled module", zap.Error(err))
	}
}

// Config returns the configuration the engine was created with.
func (e *Wazero) Config() Config {
	return e.cfg
}
