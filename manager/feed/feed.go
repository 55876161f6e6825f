// Package feed 是 feed.Source 与宿主之间的边界层：解析 JSON 配置、管理句柄表，
// 并把推进结果编码成 JSON。
//
// 返回的 []byte 来自缓冲池，调用方把它复制到自己的内存之后必须调用一次 Release。
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/foxxorcat/wazero-feed/common/bytespool"
	"github.com/foxxorcat/wazero-feed/common/random"
	"github.com/foxxorcat/wazero-feed/feed"
	witgo "github.com/foxxorcat/wazero-feed/wit-go"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// retiredCapacity 是记住的已销毁句柄数量，只用于诊断。
const retiredCapacity = 256

var ErrInvalidHandle = errors.New("feed: invalid handle")

// SourceManager 是管理 feed.Source 的句柄表。
type SourceManager = witgo.ResourceManager[*feed.Source]

// TickResponse 是 advance 的响应格式。
type TickResponse struct {
	Current       []*feed.Profile `json:"current"`
	PreloadImages []string        `json:"preloadImages"`
}

type Manager struct {
	sources *SourceManager
	retired *lru.Cache[uint32, struct{}]
	rng     *random.Source
	logger  *zap.Logger
}

// NewManager 创建一个边界管理器。rng 为 nil 时使用进程级共享随机源，
// 它会在第一次创建 Source 时播种。
func NewManager(logger *zap.Logger, rng *random.Source) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	retired, _ := lru.New[uint32, struct{}](retiredCapacity)
	return &Manager{
		sources: witgo.NewResourceManager[*feed.Source](),
		retired: retired,
		rng:     rng,
		logger:  logger,
	}
}

func (m *Manager) randomSource() (*random.Source, error) {
	if m.rng != nil {
		return m.rng, nil
	}
	return random.Shared()
}

// Create 解析配置并创建一个 Source。失败时返回 0 和错误，不会 panic。
func (m *Manager) Create(configJSON []byte) (uint32, error) {
	cfg, err := feed.DecodeConfig(configJSON)
	if err != nil {
		m.logger.Warn("rejecting feed config", zap.Error(err))
		return 0, err
	}
	rng, err := m.randomSource()
	if err != nil {
		m.logger.Error("random source unavailable", zap.Error(err))
		return 0, err
	}
	src, err := feed.New(cfg, rng)
	if err != nil {
		return 0, err
	}

	handle := m.sources.Add(src)
	m.logger.Debug("feed source created",
		zap.Uint32("handle", handle),
		zap.Int("people", len(cfg.People)),
		zap.Int("batch_size", cfg.BatchSize),
	)
	return handle, nil
}

// Destroy 释放句柄对应的 Source。之后该句柄不可再用。
func (m *Manager) Destroy(handle uint32) error {
	if _, ok := m.sources.Remove(handle); !ok {
		return m.invalid(handle, "destroy")
	}
	m.retired.Add(handle, struct{}{})
	m.logger.Debug("feed source destroyed", zap.Uint32("handle", handle))
	return nil
}

// Get 返回句柄对应的 Source。
func (m *Manager) Get(handle uint32) (*feed.Source, error) {
	if src, ok := m.sources.Get(handle); ok {
		return src, nil
	}
	return nil, m.invalid(handle, "get")
}

// PreloadAll 把当前整个预选缓冲区编码成头像字符串的 JSON 数组。
func (m *Manager) PreloadAll(handle uint32) ([]byte, error) {
	src, ok := m.sources.Get(handle)
	if !ok {
		return nil, m.invalid(handle, "preload-all")
	}
	lookahead := src.Lookahead()
	avatars := make([]string, len(lookahead))
	for i, p := range lookahead {
		avatars[i] = p.Avatar
	}
	return encode(avatars)
}

// Advance 推进一批并编码为 {"current": [...], "preloadImages": [...]}。
func (m *Manager) Advance(handle uint32) ([]byte, error) {
	src, ok := m.sources.Get(handle)
	if !ok {
		return nil, m.invalid(handle, "advance")
	}
	tick := src.Tick()
	resp := TickResponse{
		Current:       tick.Current,
		PreloadImages: make([]string, len(tick.Preload)),
	}
	for i, p := range tick.Preload {
		resp.PreloadImages[i] = p.Avatar
	}
	return encode(resp)
}

// Seed 返回当前随机源种子的十六进制表示。
func (m *Manager) Seed() (string, error) {
	rng, err := m.randomSource()
	if err != nil {
		return "", err
	}
	return random.FormatSeed(rng.Seed()), nil
}

// Release 归还 PreloadAll 或 Advance 返回的缓冲区。
func (m *Manager) Release(b []byte) {
	bytespool.Free(b)
}

// Len 返回存活的 Source 数量。
func (m *Manager) Len() int {
	return m.sources.Len()
}

// Close 销毁所有存活的 Source，返回销毁的数量。
func (m *Manager) Close() int {
	var handles []uint32
	m.sources.Range(func(handle uint32, _ *feed.Source) bool {
		handles = append(handles, handle)
		return true
	})
	for _, handle := range handles {
		_ = m.Destroy(handle)
	}
	return len(handles)
}

func (m *Manager) invalid(handle uint32, op string) error {
	if m.retired.Contains(handle) {
		m.logger.Warn("feed source used after destroy", zap.Uint32("handle", handle), zap.String("op", op))
		return fmt.Errorf("%w: %d was destroyed", ErrInvalidHandle, handle)
	}
	m.logger.Warn("unknown feed source handle", zap.Uint32("handle", handle), zap.String("op", op))
	return fmt.Errorf("%w: %d", ErrInvalidHandle, handle)
}

func encode(v any) ([]byte, error) {
	buf := bytes.NewBuffer(bytespool.Alloc(bytespool.MinPoolSize))
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		bytespool.Free(buf.Bytes())
		return nil, fmt.Errorf("feed: encode response: %w", err)
	}
	// Encoder 总会追加一个换行
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
