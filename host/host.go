package host

import (
	"context"
	"fmt"

	"github.com/foxxorcat/wazero-feed/common/random"
	manager_feed "github.com/foxxorcat/wazero-feed/manager/feed"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Implementation 是所有宿主模块必须实现的接口。
type Implementation interface {
	// Name 返回模块的名称，例如 "feed:core/source"。
	Name() string
	// Versions 返回此实现兼容的版本列表，例如 ["0.1.0"]。
	Versions() []string
	// Instantiate 将模块的函数导出到 wazero 运行时。
	Instantiate(context.Context, *Host, wazero.HostModuleBuilder) error
}

// Host 是所有宿主模块实现及其共享状态的容器。
type Host struct {
	logger      *zap.Logger
	random      *random.Source
	entropy     random.EntropyFunc
	feedManager *manager_feed.Manager

	implementations []Implementation
	// afterOptions 在所有选项应用完之后按顺序执行
	afterOptions []func()
}

// ModuleOption 是用于配置 Host 的选项函数。
type ModuleOption func(*Host)

// WithLogger 设置日志输出，默认不输出。
func WithLogger(logger *zap.Logger) ModuleOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithRandom 使用给定的随机源代替进程级共享随机源，主要用于可复现的测试。
func WithRandom(src *random.Source) ModuleOption {
	return func(h *Host) {
		h.random = src
	}
}

// WithEntropy 设置共享随机源的熵函数。共享随机源已经播种时 NewHost 会记录警告并忽略它。
func WithEntropy(fn random.EntropyFunc) ModuleOption {
	return func(h *Host) {
		h.entropy = fn
	}
}

// NewHost 创建一个新的 Host 实例，并应用所有提供的模块选项。
func NewHost(opts ...ModuleOption) *Host {
	h := &Host{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	if h.entropy != nil {
		if err := random.SetEntropy(h.entropy); err != nil {
			h.logger.Warn("entropy function ignored", zap.Error(err))
		}
	}
	h.feedManager = manager_feed.NewManager(h.logger.Named("feed"), h.random)
	for _, fn := range h.afterOptions {
		fn()
	}
	h.afterOptions = nil
	return h
}

// AfterOptions 把 fn 推迟到 NewHost 应用完全部选项之后执行。
// 选项需要使用日志或 FeedManager 时通过它访问，不受选项顺序影响。
func (h *Host) AfterOptions(fn func()) {
	h.afterOptions = append(h.afterOptions, fn)
}

func (h *Host) AddImplementation(impl Implementation) {
	h.implementations = append(h.implementations, impl)
}

// Instantiate 将所有已配置的模块实例化到 wazero 运行时。
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) error {
	for _, impl := range h.implementations {
		for _, version := range impl.Versions() {
			moduleName := impl.Name() + "@" + version
			builder := r.NewHostModuleBuilder(moduleName)
			if err := impl.Instantiate(ctx, h, builder); err != nil {
				return fmt.Errorf("instantiate %s: %w", moduleName, err)
			}

			if _, err := builder.Instantiate(ctx); err != nil {
				return fmt.Errorf("instantiate %s: %w", moduleName, err)
			}
			h.logger.Debug("host module instantiated", zap.String("module", moduleName))
		}
	}
	return nil
}

// Close 销毁所有仍然存活的 feed 实例。
func (h *Host) Close() {
	if n := h.feedManager.Close(); n > 0 {
		h.logger.Debug("released live feed sources", zap.Int("count", n))
	}
}

func (h *Host) Logger() *zap.Logger {
	return h.logger
}

func (h *Host) FeedManager() *manager_feed.Manager {
	return h.feedManager
}
