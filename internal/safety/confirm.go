// Package safety implements the red/green interception gate: every tool
// invocation is classified before execution, and red invocations suspend
// until the user answers a confirmation prompt.
package safety

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/donna-agent/donna/internal/store"
)

// ConfirmRequest describes one pending confirmation shown to the user.
type ConfirmRequest struct {
	ConfirmID string         `json:"confirm_id"`
	Tool      string         `json:"tool"`
	Profile   string         `json:"profile"`
	Arguments map[string]any `json:"arguments"`
	CreatedAt time.Time      `json:"created_at"`
}

// Confirmations tracks in-flight confirmation prompts. Each pending
// prompt owns a buffered channel carrying the user's raw response line;
// Respond is non-blocking and Wait consumes exactly one response.
type Confirmations struct {
	mu      sync.Mutex
	pending map[string]chan string
	store   *store.Store
}

// NewConfirmations creates a confirmation tracker. Store may be nil; it
// is used only for best-effort audit rows.
func NewConfirmations(st *store.Store) *Confirmations {
	return &Confirmations{
		pending: make(map[string]chan string),
		store:   st,
	}
}

// Create registers a pending confirmation and returns its ID.
func (c *Confirmations) Create(req *ConfirmRequest) string {
	id := newConfirmID()
	req.ConfirmID = id
	req.CreatedAt = time.Now()

	ch := make(chan string, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.RecordApproval(context.Background(), id, req.Profile, req.Tool, req.Arguments)
	}
	return id
}

// Wait blocks until a response arrives or the context expires. Context
// expiry is not an error path for the gate: the caller treats it as a
// denial, so Wait reports it via ok=false with the ctx error attached.
func (c *Confirmations) Wait(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no pending confirmation: %s", id)
	}

	select {
	case response := <-ch:
		c.cleanup(id)
		return response, nil
	case <-ctx.Done():
		c.cleanup(id)
		if c.store != nil {
			_ = c.store.ResolveApproval(context.Background(), id, store.ApprovalTimeout)
		}
		return "", ctx.Err()
	}
}

// Respond delivers the user's raw response line for a pending
// confirmation. Non-blocking; a second response for the same ID is
// dropped.
func (c *Confirmations) Respond(id, response string) error {
	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending confirmation: %s", id)
	}

	select {
	case ch <- response:
	default:
	}
	return nil
}

func (c *Confirmations) cleanup(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func newConfirmID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return fmt.Sprintf("conf-%d", time.Now().UnixNano())
}
