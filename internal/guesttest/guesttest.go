// Package guesttest 提供测试用的最小 guest 模块。
//
// 该模块只导出 memory（32 页）和一个只增不减的 cabi_realloc：
//
//	(module
//	  (memory (export "memory") 32)
//	  (global $heap (mut i32) (i32.const 1024))
//	  (func (export "cabi_realloc") (param i32 i32 i32 i32) (result i32)
//	    (local $ptr i32)
//	    (global.set $heap
//	      (i32.add
//	        (local.tee $ptr
//	          (i32.and (i32.sub (i32.add (global.get $heap) (local.get 2)) (i32.const 1))
//	                   (i32.sub (i32.const 0) (local.get 2))))
//	        (local.get 3)))
//	    (local.get $ptr)))
//
// 释放调用（new_size 为 0）不会回收内存。
package guesttest

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// HeapBase 是第一次分配返回的地址。
const HeapBase = 1024

// MemorySize 是 guest 线性内存的字节数。
const MemorySize = 32 * 65536

var BumpAllocator = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32 i32 i32 i32) -> i32
	0x01, 0x09, 0x01, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
	// func
	0x03, 0x02, 0x01, 0x00,
	// memory: min 32 pages
	0x05, 0x03, 0x01, 0x00, 0x20,
	// global: mut i32 = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// export: "memory", "cabi_realloc"
	0x07, 0x19, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x0c, 'c', 'a', 'b', 'i', '_', 'r', 'e', 'a', 'l', 'l', 'o', 'c', 0x00, 0x00,
	// code
	0x0a, 0x1d, 0x01, 0x1b, 0x01, 0x01, 0x7f,
	0x23, 0x00, // global.get 0
	0x20, 0x02, // local.get 2
	0x6a,       // i32.add
	0x41, 0x01, // i32.const 1
	0x6b,       // i32.sub
	0x41, 0x00, // i32.const 0
	0x20, 0x02, // local.get 2
	0x6b,       // i32.sub
	0x71,       // i32.and
	0x22, 0x04, // local.tee 4
	0x20, 0x03, // local.get 3
	0x6a,       // i32.add
	0x24, 0x00, // global.set 0
	0x20, 0x04, // local.get 4
	0x0b,
}

// Instantiate 在 r 中以 name 实例化该 guest 模块。
func Instantiate(ctx context.Context, r wazero.Runtime, name string) (api.Module, error) {
	return r.InstantiateWithConfig(ctx, BumpAllocator, wazero.NewModuleConfig().WithName(name))
}

// FreeCountAddr 是 WildAllocator 记录释放次数的地址（小端 u32）。
const FreeCountAddr = 0

// WildAllocator 只有 1 页内存，它的 cabi_realloc 对分配请求总是返回越界地址 65536，
// 对释放请求（new_size 为 0）把 FreeCountAddr 处的计数加一：
//
//	(module
//	  (memory (export "memory") 1)
//	  (func (export "cabi_realloc") (param i32 i32 i32 i32) (result i32)
//	    (if (i32.eqz (local.get 3))
//	      (then (i32.store (i32.const 0) (i32.add (i32.load (i32.const 0)) (i32.const 1)))))
//	    (i32.const 65536)))
var WildAllocator = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32 i32 i32 i32) -> i32
	0x01, 0x09, 0x01, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
	// func
	0x03, 0x02, 0x01, 0x00,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export: "memory", "cabi_realloc"
	0x07, 0x19, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x0c, 'c', 'a', 'b', 'i', '_', 'r', 'e', 'a', 'l', 'l', 'o', 'c', 0x00, 0x00,
	// code
	0x0a, 0x1b, 0x01, 0x19, 0x00,
	0x20, 0x03,             // local.get 3
	0x45,                   // i32.eqz
	0x04, 0x40,             // if
	0x41, 0x00,             // i32.const 0
	0x41, 0x00,             // i32.const 0
	0x28, 0x02, 0x00,       // i32.load
	0x41, 0x01,             // i32.const 1
	0x6a,                   // i32.add
	0x36, 0x02, 0x00,       // i32.store
	0x0b,                   // end
	0x41, 0x80, 0x80, 0x04, // i32.const 65536
	0x0b,
}

// InstantiateWild 在 r 中以 name 实例化 WildAllocator。
func InstantiateWild(ctx context.Context, r wazero.Runtime, name string) (api.Module, error) {
	return r.InstantiateWithConfig(ctx, WildAllocator, wazero.NewModuleConfig().WithName(name))
}
