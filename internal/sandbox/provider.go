package sandbox

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// provider is an instantiated plugin object.
type provider struct {
	id           string
	obj          *goja.Object
	canTranslate goja.Callable
	translate    goja.Callable
}

// instantiate evaluates the plugin source and builds the provider through
// its factory. The factory is looked up on the value the source evaluates
// to first, then among the globals.
func (r *runtime) instantiate(entry messaging.PluginEntry) (*provider, error) {
	id := entry.Content.ID
	factory := FactoryName(id)

	val, err := r.run(id+".js", utils.ContentHash(entry.Content.Content), entry.Content.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: evaluate: %v", failure.ErrPluginInstantiation, id, err)
	}

	var fn goja.Callable
	if obj, ok := val.(*goja.Object); ok {
		fn, _ = goja.AssertFunction(obj.Get(factory))
	}
	if fn == nil {
		fn, _ = goja.AssertFunction(r.vm.Get(factory))
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s: no %s function", failure.ErrPluginInstantiation, id, factory)
	}

	inst, err := r.call(fn, goja.Undefined())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", failure.ErrPluginInstantiation, id, factory, err)
	}
	obj, ok := inst.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s returned %s", failure.ErrPluginInstantiation, id, factory, inst)
	}

	p := &provider{id: id, obj: obj}
	if p.canTranslate, ok = goja.AssertFunction(obj.Get("canTranslate")); !ok {
		return nil, fmt.Errorf("%w: %s: missing canTranslate", failure.ErrPluginInstantiation, id)
	}
	if p.translate, ok = goja.AssertFunction(obj.Get("translate")); !ok {
		return nil, fmt.Errorf("%w: %s: missing translate", failure.ErrPluginInstantiation, id)
	}
	// Results are keyed by the manifest id; id() is informational.
	if idFn, ok := goja.AssertFunction(obj.Get("id")); ok {
		if v, err := r.call(idFn, obj); err == nil && v.String() != id {
			r.logger.Debug("Provider id differs from manifest", zap.String("plugin_id", id), zap.String("provider_id", v.String()))
		}
	}

	if update, ok := goja.AssertFunction(obj.Get("updateOptions")); ok {
		if _, err := r.call(update, obj, r.optionsValue(entry.Options)); err != nil {
			return nil, fmt.Errorf("%w: %s: updateOptions: %v", failure.ErrPluginInstantiation, id, err)
		}
	}
	return p, nil
}

// meta reads the provider's self description. Missing fields stay empty.
func (r *runtime) meta(p *provider) model.ProviderMeta {
	fn, ok := goja.AssertFunction(p.obj.Get("meta"))
	if !ok {
		return model.ProviderMeta{Name: p.id}
	}
	v, err := r.call(fn, p.obj)
	if err != nil {
		return model.ProviderMeta{Name: p.id}
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return model.ProviderMeta{Name: p.id}
	}
	str := func(key string) string {
		f := obj.Get(key)
		if f == nil || goja.IsUndefined(f) || goja.IsNull(f) {
			return ""
		}
		return f.String()
	}
	return model.ProviderMeta{
		Name:        str("name"),
		Description: str("description"),
		Source:      str("source"),
		SourceURL:   str("sourceUrl"),
		Author:      str("author"),
		AuthorURL:   str("authorUrl"),
	}
}

func (r *runtime) optionsValue(opts model.PluginOptions) goja.Value {
	obj := r.vm.NewObject()
	for k, v := range opts {
		_ = obj.Set(k, v)
	}
	return obj
}

func (r *runtime) queryValue(q model.Query) goja.Value {
	obj := r.vm.NewObject()
	if q.ID != "" {
		_ = obj.Set("id", q.ID)
	}
	_ = obj.Set("text", q.Text)
	_ = obj.Set("from", q.From.Code())
	_ = obj.Set("to", q.To.Code())
	return obj
}

// resultFor builds the result packet for html. A provider reports its own
// failure by marking the html with model.FailureMarker.
func resultFor(pluginID string, q model.Query, html string) messaging.TranslationResult {
	res := model.NewTranslationResult(pluginID, q, html)
	res.Success = !strings.Contains(html, model.FailureMarker)
	return messaging.TranslationResult{TranslationResult: res}
}
