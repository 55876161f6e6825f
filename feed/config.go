package feed

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// LookaheadFactor 决定预选缓冲区的最小长度：batchSize * LookaheadFactor。
	LookaheadFactor = 30
	// AcceptProbability 是一次轮转后接受当前队首元素的概率。
	AcceptProbability = 0.3
	// MaxBatchSize 限制单批数量，从而限制预选缓冲区的大小。
	MaxBatchSize = 4096
)

var ErrInvalidConfig = errors.New("feed: invalid config")

// Profile 是一条不可变的展示记录。
type Profile struct {
	Avatar      string  `json:"avatar" yaml:"avatar"`
	StudentID   *string `json:"studentId" yaml:"studentId,omitempty"`
	StudentName *string `json:"studentName" yaml:"studentName,omitempty"`
}

// Config 是构造 Source 所需的全部输入，只在构造时使用一次。
type Config struct {
	People    []Profile `json:"people" yaml:"people"`
	BatchSize int       `json:"batch_size" yaml:"batch_size"`
}

// Validate 检查配置是否可以构造出一个 Source。
func (c Config) Validate() error {
	if len(c.People) == 0 {
		return fmt.Errorf("%w: people must not be empty", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch_size %d exceeds %d", ErrInvalidConfig, c.BatchSize, MaxBatchSize)
	}
	return nil
}

// rawProfile 用指针区分缺失、null 与空字符串。
type rawProfile struct {
	Avatar      *string `json:"avatar"`
	StudentID   *string `json:"studentId"`
	StudentName *string `json:"studentName"`
}

type rawConfig struct {
	People    []*rawProfile `json:"people"`
	BatchSize int           `json:"batch_size"`
}

// DecodeConfig 解析并校验 JSON 配置。avatar 是必填字段，缺失或为 null 都是配置错误；
// 空字符串可以接受。
func DecodeConfig(data []byte) (Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := Config{
		People:    make([]Profile, len(raw.People)),
		BatchSize: raw.BatchSize,
	}
	for i, p := range raw.People {
		if p == nil {
			return Config{}, fmt.Errorf("%w: people[%d] is null", ErrInvalidConfig, i)
		}
		if p.Avatar == nil {
			return Config{}, fmt.Errorf("%w: people[%d]: avatar is required", ErrInvalidConfig, i)
		}
		cfg.People[i] = Profile{Avatar: *p.Avatar, StudentID: p.StudentID, StudentName: p.StudentName}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
