package hooks

import (
	"testing"

	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	registry := NewRegistry(NewDefaultStrategy())
	registry.Register(NewNovelStrategy(config.HooksConfig{NovelAPIURL: "https://hooks.test/recharge"}))
	return registry
}

func hookURL(url string) *string {
	return &url
}

func TestResolve_TagMatchesCaseInsensitive(t *testing.T) {
	registry := newTestRegistry()

	for _, tag := range []string{"novel", "NOVEL", " Novel "} {
		strategy := registry.Resolve(tag, nil)
		require.NotNil(t, strategy, "tag %q", tag)
		assert.Equal(t, StrategyNovel, strategy.Name())
	}
}

func TestResolve_FallbackNeedsProductHookURL(t *testing.T) {
	registry := newTestRegistry()

	strategy := registry.Resolve("unknown", &models.Product{HookURL: hookURL("https://shop.test/hook")})
	require.NotNil(t, strategy)
	assert.Equal(t, StrategyDefault, strategy.Name())

	assert.Nil(t, registry.Resolve("unknown", &models.Product{}))
	assert.Nil(t, registry.Resolve("unknown", &models.Product{HookURL: hookURL("  ")}))
	assert.Nil(t, registry.Resolve("", nil))
}

func TestResolve_NamedStrategyBeatsFallback(t *testing.T) {
	registry := newTestRegistry()

	strategy := registry.Resolve("novel", &models.Product{HookURL: hookURL("https://shop.test/hook")})
	require.NotNil(t, strategy)
	assert.Equal(t, StrategyNovel, strategy.Name())
}
