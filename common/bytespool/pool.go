// Package bytespool 为编码后的响应提供分级复用的缓冲区。
package bytespool

import "sync"

// 共有 numPools 个池，从 MinPoolSize 开始，每一级是上一级的 sizeMulti 倍。
// 超过最大一级的缓冲区直接交给 GC。
const (
	numPools    = 6
	sizeMulti   = 4
	MinPoolSize = 1024
)

var (
	pool     [numPools]sync.Pool
	poolSize [numPools]int

	// headers 回收池中切片头的指针，Put 时不必为 *[]byte 重新分配
	headers = sync.Pool{New: func() any { return new([]byte) }}
)

func init() {
	size := MinPoolSize
	for i := range numPools {
		s := size
		pool[i] = sync.Pool{
			New: func() any {
				b := make([]byte, 0, s)
				return &b
			},
		}
		poolSize[i] = size
		size *= sizeMulti
	}
}

// MaxPoolSize 返回最大一级池的容量。
func MaxPoolSize() int {
	return poolSize[numPools-1]
}

// Alloc 返回一个长度为 0、容量至少为 size 的切片。
func Alloc(size int) []byte {
	for i, ps := range poolSize {
		if size <= ps {
			bp := pool[i].Get().(*[]byte)
			b := (*bp)[:0]
			*bp = nil
			headers.Put(bp)
			return b
		}
	}
	return make([]byte, 0, size)
}

// Free 按容量把切片放回对应的池。容量小于 MinPoolSize 的切片被忽略。
// 调用之后不能再使用 b。
func Free(b []byte) {
	c := cap(b)
	if c < MinPoolSize {
		return
	}
	for i := numPools - 1; i >= 0; i-- {
		if c >= poolSize[i] {
			bp := headers.Get().(*[]byte)
			*bp = b[:0]
			pool[i].Put(bp)
			return
		}
	}
}
