package host_feed

import (
	"github.com/foxxorcat/wazero-feed/host"
	v0_1 "github.com/foxxorcat/wazero-feed/host/feed/v0_1"

	"go.uber.org/zap"
)

// Module 返回一个配置好的 feed:core 模块选项。
func Module(version string) host.ModuleOption {
	return func(h *host.Host) {
		var sourceImpl, diagnosticsImpl host.Implementation

		switch version {
		case "0.1.0":
			sourceImpl = v0_1.NewSource()
			diagnosticsImpl = v0_1.NewDiagnostics()
		default:
			h.AfterOptions(func() {
				h.Logger().Warn("unsupported feed:core version, module not registered", zap.String("version", version))
			})
			return
		}
		h.AddImplementation(sourceImpl)
		h.AddImplementation(diagnosticsImpl)
	}
}
