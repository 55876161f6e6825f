// Command libfeed builds the feed engine as a C shared library.
//
//	go build -buildmode=c-shared -o libfeed.so ./cmd/libfeed
//
// Every char* returned by this library is allocated with malloc and belongs to
// the caller, which must release it with fs_destroy_cstring. Handles are opaque
// non-zero integers; 0 means failure.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/foxxorcat/wazero-feed/common/random"
	manager_feed "github.com/foxxorcat/wazero-feed/manager/feed"

	"go.uber.org/zap"
)

var manager = manager_feed.NewManager(newLogger(), nil)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("libfeed")
}

//export fs_set_entropy
func fs_set_entropy(buf *C.uint8_t, n C.size_t) C.int {
	if buf == nil || n < random.SeedSize {
		return -1
	}
	seed := C.GoBytes(unsafe.Pointer(buf), C.int(random.SeedSize))
	err := random.SetEntropy(func(p []byte) error {
		copy(p, seed)
		return nil
	})
	if err != nil {
		return -1
	}
	return 0
}

//export fs_create
func fs_create(cfg *C.char) C.uint32_t {
	if cfg == nil {
		return 0
	}
	handle, err := manager.Create([]byte(C.GoString(cfg)))
	if err != nil {
		return 0
	}
	return C.uint32_t(handle)
}

//export fs_destroy
func fs_destroy(handle C.uint32_t) {
	_ = manager.Destroy(uint32(handle))
}

//export fs_preload_all
func fs_preload_all(handle C.uint32_t) *C.char {
	return cstring(manager.PreloadAll(uint32(handle)))
}

//export fs_tick
func fs_tick(handle C.uint32_t) *C.char {
	return cstring(manager.Advance(uint32(handle)))
}

//export fs_print_seed
func fs_print_seed() *C.char {
	seed, err := manager.Seed()
	if err != nil {
		return nil
	}
	return C.CString(seed)
}

//export fs_destroy_cstring
func fs_destroy_cstring(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// cstring copies a pooled response into malloc'd memory and releases the pool buffer.
func cstring(body []byte, err error) *C.char {
	if err != nil {
		return nil
	}
	defer manager.Release(body)
	return C.CString(string(body))
}

func main() {}
