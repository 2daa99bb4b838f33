//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// notifyContext stops watch, serve and render runs on Ctrl-C. Windows
// delivers nothing else through os/signal.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
