// Package random 提供进程级的种子化随机数源。
//
// 种子只在首次使用时从宿主提供的熵函数读取一次（32 字节），随后用于初始化
// 一个 ChaCha8 生成器，整个进程生命周期内不再重新播种。所有抽样都经过同一把锁。
package random

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// SeedSize 是种子的字节数。
const SeedSize = 32

// EntropyFunc 用随机字节填满 buf。
type EntropyFunc func(buf []byte) error

var ErrAlreadySeeded = errors.New("random: shared source already seeded")

var (
	entropyMu sync.Mutex
	entropy   EntropyFunc = cryptoEntropy
	seeded    atomic.Bool

	shared = sync.OnceValues(newShared)
)

func cryptoEntropy(buf []byte) error {
	_, err := crand.Read(buf)
	return err
}

// SetEntropy 安装宿主提供的熵函数，必须在共享源第一次使用之前调用。
func SetEntropy(fn EntropyFunc) error {
	if fn == nil {
		return errors.New("random: nil entropy function")
	}
	entropyMu.Lock()
	defer entropyMu.Unlock()
	if seeded.Load() {
		return ErrAlreadySeeded
	}
	entropy = fn
	return nil
}

// Shared 返回进程级的随机数源，首次调用时完成播种。
// 如果熵函数失败，之后的每次调用都会返回同一个错误。
func Shared() (*Source, error) {
	return shared()
}

func newShared() (*Source, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	seeded.Store(true)

	var seed [SeedSize]byte
	if err := entropy(seed[:]); err != nil {
		return nil, fmt.Errorf("random: read entropy: %w", err)
	}
	return NewSource(seed), nil
}

// Source 是一个互斥保护的 ChaCha8 生成器。
type Source struct {
	mu   sync.Mutex
	seed [SeedSize]byte
	r    *rand.Rand
}

// NewSource 使用固定种子创建一个独立的随机数源。相同的种子产生相同的抽样序列。
func NewSource(seed [SeedSize]byte) *Source {
	return &Source{
		seed: seed,
		r:    rand.New(rand.NewChaCha8(seed)),
	}
}

// Seed 返回初始化时使用的种子。
func (s *Source) Seed() [SeedSize]byte {
	return s.seed
}

// Chance 抽取一次布尔值，以概率 p 返回 true。
func (s *Source) Chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64() < p
}

// Shuffle 对 n 个元素做一次均匀随机排列。整个排列在同一次加锁内完成，
// 不会与其他抽样交错。
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
