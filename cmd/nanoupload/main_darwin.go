package main

import "golang.design/x/hotkey/mainthread"

// Cocoa only delivers hotkey events to the process main thread.
func main() { mainthread.Init(execute) }
