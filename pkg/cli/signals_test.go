package cli

import (
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	// Context should not be cancelled initially
	select {
	case <-ctx.Done():
		t.Error("Context should not be cancelled initially")
	default:
		// Expected
	}

	if ctx.Done() == nil {
		t.Error("Context should have a Done channel")
	}
}

func TestContextCancellationFlow(t *testing.T) {
	// The context must be usable in a typical server shutdown flow
	// without spurious cancellation.
	ctx := SetupSignalHandler()

	serverDone := make(chan bool)
	go func() {
		<-ctx.Done()
		serverDone <- true
	}()

	select {
	case <-serverDone:
		t.Error("Server should not be done yet")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}
