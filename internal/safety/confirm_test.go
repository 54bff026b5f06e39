package safety

import (
	"context"
	"testing"
	"time"
)

func TestConfirmRespondThenWait(t *testing.T) {
	c := NewConfirmations(nil)
	id := c.Create(&ConfirmRequest{Tool: "delete_file", Profile: "coder"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		if err := c.Respond(id, "yes"); err != nil {
			t.Errorf("respond failed: %v", err)
		}
	}()

	response, err := c.Wait(context.Background(), id)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if response != "yes" {
		t.Errorf("expected yes, got %q", response)
	}
}

func TestConfirmWaitContextCancel(t *testing.T) {
	c := NewConfirmations(nil)
	id := c.Create(&ConfirmRequest{Tool: "execute_shell"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Wait(ctx, id); err == nil {
		t.Fatal("expected a context error")
	}

	// The pending entry is cleaned up; a late response has nowhere to go.
	if err := c.Respond(id, "y"); err == nil {
		t.Error("respond after expiry should fail")
	}
}

func TestConfirmUnknownID(t *testing.T) {
	c := NewConfirmations(nil)
	if _, err := c.Wait(context.Background(), "missing"); err == nil {
		t.Error("wait on unknown id should fail")
	}
	if err := c.Respond("missing", "y"); err == nil {
		t.Error("respond on unknown id should fail")
	}
}

func TestConfirmSecondResponseDropped(t *testing.T) {
	c := NewConfirmations(nil)
	id := c.Create(&ConfirmRequest{Tool: "write_file"})

	if err := c.Respond(id, "no"); err != nil {
		t.Fatalf("first respond failed: %v", err)
	}
	// Channel is full; this must not block.
	done := make(chan struct{})
	go func() {
		c.Respond(id, "yes")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second respond blocked")
	}

	response, err := c.Wait(context.Background(), id)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if response != "no" {
		t.Errorf("expected first response to win, got %q", response)
	}
}
