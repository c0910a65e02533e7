package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/otpauth/internal/pkg/router.middlewareRecoverer.func1.1()
	/app/internal/pkg/router/middleware_recover.go:21 +0x4c
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/otpauth/internal/auth/inbound.(*HTTPEndpoint).Login(...)
	/app/internal/auth/inbound/http_endpoint.go:40
`)

	got := InternalPaths(stack)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:21",
		"internal/auth/inbound/http_endpoint.go:40",
	}, got)
}

func TestInternalPaths_NoFrames(t *testing.T) {
	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/app/main.go:10\n")))
}
