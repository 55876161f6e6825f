package v0_1

import (
	"context"

	manager_feed "github.com/foxxorcat/wazero-feed/manager/feed"
	witgo "github.com/foxxorcat/wazero-feed/wit-go"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

type diagnosticsImpl struct {
	fm     *manager_feed.Manager
	logger *zap.Logger
}

func newDiagnosticsImpl(fm *manager_feed.Manager, logger *zap.Logger) *diagnosticsImpl {
	return &diagnosticsImpl{fm: fm, logger: logger}
}

// Seed 实现 seed: func() -> string，返回随机源种子的十六进制表示。
// 如果共享随机源尚未播种，这次调用会触发播种。
func (i *diagnosticsImpl) Seed(ctx context.Context, mod api.Module, retptr uint32) {
	guest, err := witgo.NewGuest(mod)
	if err != nil {
		i.logger.Error("seed requested by unsupported guest", zap.Error(err))
		return
	}
	seed, err := i.fm.Seed()
	if err != nil {
		i.logger.Error("random source unavailable", zap.Error(err))
		_ = guest.StoreEmpty(retptr)
		return
	}
	if err := guest.StoreBytes(ctx, retptr, []byte(seed)); err != nil {
		i.logger.Error("failed to hand seed to guest", zap.Error(err))
		_ = guest.StoreEmpty(retptr)
	}
}
