// Command libcpmv builds the cpmv shared library:
//
//	go build -buildmode=c-shared -o libcpmv.so ./cmd/libcpmv
//
// which exports
//
//	int cpmv_copy(const char* source, const char* destination);
//	int cpmv_move(const char* source, const char* destination);
//	int cpmv_last_error(char* buf, size_t size);
package main

// #include <stddef.h>
import "C"

import (
	"unsafe"

	"github.com/bamsammich/cpmv/internal/capi"
	"github.com/bamsammich/cpmv/internal/logging"
)

var adapter = capi.New(logging.Stderr())

//export cpmv_copy
func cpmv_copy(source, destination *C.char) C.int {
	return C.int(adapter.Copy(unsafe.Pointer(source), unsafe.Pointer(destination)))
}

//export cpmv_move
func cpmv_move(source, destination *C.char) C.int {
	return C.int(adapter.Move(unsafe.Pointer(source), unsafe.Pointer(destination)))
}

//export cpmv_last_error
func cpmv_last_error(buf *C.char, size C.size_t) C.int {
	return C.int(capi.CopyLastError(unsafe.Pointer(buf), uintptr(size)))
}

func main() {}
