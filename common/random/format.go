package random

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FormatSeed 把种子渲染成 8 组 4 字节的十六进制，组间以空格分隔，第 4 组后换行。
//
//	00112233 44556677 8899aabb ccddeeff
//	00112233 44556677 8899aabb ccddeeff
func FormatSeed(seed [SeedSize]byte) string {
	var sb strings.Builder
	sb.Grow(SeedSize*2 + 8)
	for i := 0; i < SeedSize; i += 4 {
		switch {
		case i == 16:
			sb.WriteByte('\n')
		case i > 0:
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString(seed[i : i+4]))
	}
	return sb.String()
}

// ParseSeed 是 FormatSeed 的逆操作，忽略所有空白字符。
func ParseSeed(s string) ([SeedSize]byte, error) {
	var seed [SeedSize]byte
	compact := strings.Join(strings.Fields(s), "")
	if len(compact) != SeedSize*2 {
		return seed, fmt.Errorf("random: seed must be %d hex digits, got %d", SeedSize*2, len(compact))
	}
	if _, err := hex.Decode(seed[:], []byte(compact)); err != nil {
		return seed, fmt.Errorf("random: decode seed: %w", err)
	}
	return seed, nil
}
