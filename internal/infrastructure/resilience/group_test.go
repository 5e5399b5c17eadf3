package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupForURL(t *testing.T) {
	g := NewGroup(Settings{Threshold: 1})

	bing := g.ForURL("https://www.bing.com/translator")
	assert.Same(t, bing, g.ForURL("https://www.bing.com/tdetect?IG=1"))
	assert.Equal(t, "www.bing.com", bing.Name())

	google := g.ForURL("https://translate.google.com/")
	assert.NotSame(t, bing, google)

	_ = bing.Do(outcome(false))
	snap := g.Snapshot()
	assert.Equal(t, StateOpen, snap["www.bing.com"])
	assert.Equal(t, StateClosed, snap["translate.google.com"])
}

func TestGroupInvalidURL(t *testing.T) {
	g := NewGroup(DefaultSettings())
	b := g.ForURL("::not a url")
	assert.Same(t, b, g.ForURL("::not a url"))
}
