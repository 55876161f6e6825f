package v0_1

import (
	"context"

	manager_feed "github.com/foxxorcat/wazero-feed/manager/feed"
	witgo "github.com/foxxorcat/wazero-feed/wit-go"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// sourceImpl 封装了 feed:core/source 的所有操作。
//
// 配置由 guest 持有，宿主只复制读取；响应通过 guest 的 cabi_realloc 分配，
// (ptr, len) 写到 retptr 处，所有权随之转移给 guest。失败时写入 (0, 0)。
type sourceImpl struct {
	fm     *manager_feed.Manager
	logger *zap.Logger
}

func newSourceImpl(fm *manager_feed.Manager, logger *zap.Logger) *sourceImpl {
	return &sourceImpl{fm: fm, logger: logger}
}

// Create 实现 create: func(config: string) -> u32。失败返回 0。
func (i *sourceImpl) Create(_ context.Context, mod api.Module, cfgPtr, cfgLen uint32) uint32 {
	guest, err := witgo.NewGuest(mod)
	if err != nil {
		i.logger.Error("create called by unsupported guest", zap.Error(err))
		return 0
	}
	cfg, err := guest.ReadBytes(cfgPtr, cfgLen)
	if err != nil {
		i.logger.Warn("failed to read feed config", zap.Error(err))
		return 0
	}
	handle, err := i.fm.Create(cfg)
	if err != nil {
		return 0
	}
	return handle
}

// Destroy 实现 destroy: func(handle: u32)。
func (i *sourceImpl) Destroy(_ context.Context, _ api.Module, handle uint32) {
	_ = i.fm.Destroy(handle)
}

// PreloadAll 实现 preload-all: func(handle: u32) -> string。
func (i *sourceImpl) PreloadAll(ctx context.Context, mod api.Module, handle, retptr uint32) {
	i.respond(ctx, mod, retptr, func() ([]byte, error) {
		return i.fm.PreloadAll(handle)
	})
}

// Advance 实现 advance: func(handle: u32) -> string。
func (i *sourceImpl) Advance(ctx context.Context, mod api.Module, handle, retptr uint32) {
	i.respond(ctx, mod, retptr, func() ([]byte, error) {
		return i.fm.Advance(handle)
	})
}

func (i *sourceImpl) respond(ctx context.Context, mod api.Module, retptr uint32, produce func() ([]byte, error)) {
	guest, err := witgo.NewGuest(mod)
	if err != nil {
		i.logger.Error("response requested by unsupported guest", zap.Error(err))
		return
	}
	body, err := produce()
	if err != nil {
		_ = guest.StoreEmpty(retptr)
		return
	}
	defer i.fm.Release(body)

	if err := guest.StoreBytes(ctx, retptr, body); err != nil {
		i.logger.Error("failed to hand response to guest", zap.Error(err))
		_ = guest.StoreEmpty(retptr)
	}
}
