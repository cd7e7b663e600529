//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The hotkey library needs the process main thread on macOS and
	// Windows; run() moves to a worker.
	var code int
	mainthread.Init(func() { code = run() })
	os.Exit(code)
}
