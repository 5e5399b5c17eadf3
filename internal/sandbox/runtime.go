package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// helpers are compiled once per VM and never exposed as globals.
const (
	deferredSource = `(function () {
	var d = {};
	d.promise = new Promise(function (resolve, reject) { d.resolve = resolve; d.reject = reject; });
	return d;
})`
	settleSource = `(function (value, ok, fail) { Promise.resolve(value).then(ok, fail); })`
)

// errTimeout is reported when plugin code runs past the script timeout.
var errTimeout = errors.New("script timeout exceeded")

// runtime owns the goja VM. Every method must be called on the loop
// goroutine.
type runtime struct {
	vm     *goja.Runtime
	config Config
	logger *zap.Logger
	http   HTTPClient
	post   func(func()) bool
	ctx    context.Context

	deferred goja.Callable
	settle   goja.Callable

	programs map[string]*goja.Program

	timerMu sync.Mutex
	timers  map[int64]*time.Timer
	nextID  int64
}

func newRuntime(ctx context.Context, cfg Config, logger *zap.Logger, client HTTPClient, post func(func()) bool) (*runtime, error) {
	r := &runtime{
		vm:       goja.New(),
		config:   cfg,
		logger:   logger,
		http:     client,
		post:     post,
		ctx:      ctx,
		programs: make(map[string]*goja.Program),
		timers:   make(map[int64]*time.Timer),
	}
	r.vm.SetMaxCallStackSize(1024)

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}

	var err error
	if r.deferred, err = r.compileFunc("deferred", deferredSource); err != nil {
		return nil, err
	}
	if r.settle, err = r.compileFunc("settle", settleSource); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *runtime) compileFunc(name, src string) (goja.Callable, error) {
	v, err := r.vm.RunScript(name, src)
	if err != nil {
		return nil, fmt.Errorf("compile %s helper: %w", name, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%s helper is not a function", name)
	}
	return fn, nil
}

// setupGlobals leaves plugins with console, timers and http only.
func (r *runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports", "chrome", "browser"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := r.vm.Set("console", console); err != nil {
		return err
	}

	if err := r.vm.Set("setTimeout", r.setTimeout); err != nil {
		return err
	}
	if err := r.vm.Set("clearTimeout", r.clearTimeout); err != nil {
		return err
	}

	bridge := r.vm.NewObject()
	if err := bridge.Set("get", r.httpGet); err != nil {
		return err
	}
	if err := bridge.Set("post", r.httpPost); err != nil {
		return err
	}
	return r.vm.Set("http", bridge)
}

func (r *runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if !r.config.EnableConsole {
			return goja.Undefined()
		}
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		switch level {
		case "warn":
			r.logger.Warn(msg, zap.String("source", "console"))
		case "error":
			r.logger.Error(msg, zap.String("source", "console"))
		case "debug":
			r.logger.Debug(msg, zap.String("source", "console"))
		default:
			r.logger.Info(msg, zap.String("source", "console"))
		}
		return goja.Undefined()
	}
}

// guard runs fn under the script timeout and converts panics to errors.
func (r *runtime) guard(fn func() (goja.Value, error)) (v goja.Value, err error) {
	if r.config.ScriptTimeout > 0 {
		timer := time.AfterFunc(r.config.ScriptTimeout, func() {
			r.vm.Interrupt(errTimeout)
		})
		defer func() {
			timer.Stop()
			r.vm.ClearInterrupt()
		}()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script panic: %v", p)
		}
	}()

	v, err = fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		err = fmt.Errorf("%w after %s", errTimeout, r.config.ScriptTimeout)
	}
	return v, err
}

// call invokes fn with this and args under guard.
func (r *runtime) call(fn goja.Callable, this goja.Value, args ...goja.Value) (goja.Value, error) {
	return r.guard(func() (goja.Value, error) {
		return fn(this, args...)
	})
}

// run evaluates source, reusing the compiled program for identical content.
func (r *runtime) run(name, hash, source string) (goja.Value, error) {
	prog, ok := r.programs[hash]
	if !ok {
		var err error
		prog, err = goja.Compile(name, source, false)
		if err != nil {
			return nil, err
		}
		r.programs[hash] = prog
	}
	return r.guard(func() (goja.Value, error) {
		return r.vm.RunProgram(prog)
	})
}

// whenSettled calls ok or fail once value, a promise or a plain value,
// settles. Callbacks run on the loop goroutine.
func (r *runtime) whenSettled(value goja.Value, ok func(goja.Value), fail func(goja.Value)) error {
	okFn := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		ok(call.Argument(0))
		return goja.Undefined()
	})
	failFn := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fail(call.Argument(0))
		return goja.Undefined()
	})
	_, err := r.call(r.settle, goja.Undefined(), value, okFn, failFn)
	return err
}

// promise returns a pending promise with its resolve and reject functions.
func (r *runtime) promise() (*goja.Object, goja.Callable, goja.Callable, error) {
	v, err := r.deferred(goja.Undefined())
	if err != nil {
		return nil, nil, nil, err
	}
	d := v.ToObject(r.vm)
	resolve, _ := goja.AssertFunction(d.Get("resolve"))
	reject, _ := goja.AssertFunction(d.Get("reject"))
	return d.Get("promise").ToObject(r.vm), resolve, reject, nil
}

func (r *runtime) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(r.vm.NewTypeError("setTimeout callback is not a function"))
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	extra := append([]goja.Value(nil), call.Arguments[min(2, len(call.Arguments)):]...)

	r.timerMu.Lock()
	r.nextID++
	id := r.nextID
	r.timers[id] = time.AfterFunc(delay, func() {
		r.post(func() {
			r.timerMu.Lock()
			_, live := r.timers[id]
			delete(r.timers, id)
			r.timerMu.Unlock()
			if !live {
				return
			}
			if _, err := r.call(fn, goja.Undefined(), extra...); err != nil {
				r.logger.Warn("Timer callback failed", zap.Error(err))
			}
		})
	})
	r.timerMu.Unlock()
	return r.vm.ToValue(id)
}

func (r *runtime) clearTimeout(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	r.timerMu.Lock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	r.timerMu.Unlock()
	return goja.Undefined()
}

// stopTimers cancels every pending timer.
func (r *runtime) stopTimers() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

// http.get(url, headers?) and http.post(url, body, headers?) resolve with
// the response text and reject on transport errors or non-200 statuses.
func (r *runtime) httpGet(call goja.FunctionCall) goja.Value {
	return r.fetch(httpclient.Request{
		Method:  "GET",
		URL:     call.Argument(0).String(),
		Headers: r.headers(call.Argument(1)),
	})
}

func (r *runtime) httpPost(call goja.FunctionCall) goja.Value {
	return r.fetch(httpclient.Request{
		Method:  "POST",
		URL:     call.Argument(0).String(),
		Body:    call.Argument(1).String(),
		Headers: r.headers(call.Argument(2)),
	})
}

func (r *runtime) headers(v goja.Value) map[string]string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj := v.ToObject(r.vm)
	out := make(map[string]string)
	for _, k := range obj.Keys() {
		out[k] = obj.Get(k).String()
	}
	return out
}

func (r *runtime) fetch(req httpclient.Request) goja.Value {
	promise, resolve, reject, err := r.promise()
	if err != nil {
		panic(r.vm.NewGoError(err))
	}
	if r.http == nil {
		if _, err := reject(goja.Undefined(), r.vm.NewGoError(errors.New("http is not available"))); err != nil {
			r.logger.Debug("Reject failed", zap.Error(err))
		}
		return promise
	}

	go func() {
		resp, err := r.http.Do(r.ctx, req)
		r.post(func() {
			var cbErr error
			if err != nil {
				_, cbErr = r.call(reject, goja.Undefined(), r.vm.NewGoError(err))
			} else {
				_, cbErr = r.call(resolve, goja.Undefined(), r.vm.ToValue(resp.Text()))
			}
			if cbErr != nil {
				r.logger.Warn("Promise callback failed", zap.String("url", req.URL), zap.Error(cbErr))
			}
		})
	}()
	return promise
}
