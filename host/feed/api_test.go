package host_feed

import (
	"context"
	"testing"

	"github.com/foxxorcat/wazero-feed/common/random"
	"github.com/foxxorcat/wazero-feed/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestModule_Instantiate(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	h := host.NewHost(
		host.WithRandom(random.NewSource([random.SeedSize]byte{1, 2, 3})),
		Module("0.1.0"),
	)
	require.NoError(t, h.Instantiate(ctx, r))

	source := r.Module("feed:core/source@0.1.0")
	require.NotNil(t, source)
	defs := source.ExportedFunctionDefinitions()
	for _, name := range []string{"create", "destroy", "preload-all", "advance"} {
		assert.Contains(t, defs, name)
	}
	assert.Len(t, defs["create"].ParamTypes(), 2)
	assert.Len(t, defs["create"].ResultTypes(), 1)
	assert.Len(t, defs["advance"].ParamTypes(), 2)
	assert.Empty(t, defs["advance"].ResultTypes())

	diagnostics := r.Module("feed:core/diagnostics@0.1.0")
	require.NotNil(t, diagnostics)
	assert.Contains(t, diagnostics.ExportedFunctionDefinitions(), "seed")

	// 直接从 Go 调用时没有 guest 内存，create 只能失败
	results, err := source.ExportedFunction("create").Call(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), results[0])
}

func TestModule_UnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	core, logs := observer.New(zapcore.WarnLevel)
	h := host.NewHost(host.WithLogger(zap.New(core)), Module("9.9.9"))
	require.NoError(t, h.Instantiate(ctx, r))

	assert.Nil(t, r.Module("feed:core/source@9.9.9"))
	assert.Nil(t, r.Module("feed:core/source@0.1.0"))
	assert.Equal(t, 1, logs.FilterMessage("unsupported feed:core version, module not registered").Len())
}

func TestModule_UnsupportedVersionLoggerAfterModule(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	host.NewHost(Module("0.0.1"), host.WithLogger(zap.New(core)))

	entries := logs.FilterMessage("unsupported feed:core version, module not registered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "0.0.1", entries[0].ContextMap()["version"])
}
