package contacts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation names used by MemoryProvider call counting and error injection.
const (
	OpSave   = "save"
	OpRemove = "remove"
	OpFind   = "find"
)

// MemoryProvider is an in-memory Provider. It stores copies of the contacts
// it is given, counts calls per operation and can be told to fail the next
// call of an operation.
type MemoryProvider struct {
	mu       sync.Mutex
	contacts map[string]*Contact
	calls    map[string]int
	failNext map[string]ErrorCode
	now      func() time.Time
}

// NewMemoryProvider creates a provider seeded with copies of seed.
func NewMemoryProvider(seed ...*Contact) *MemoryProvider {
	p := &MemoryProvider{
		contacts: make(map[string]*Contact),
		calls:    make(map[string]int),
		failNext: make(map[string]ErrorCode),
		now:      time.Now,
	}
	for _, c := range seed {
		stored := c.Clone()
		if stored.ID == "" {
			stored.ID = uuid.NewString()
			c.ID = stored.ID
		}
		p.contacts[stored.ID] = stored
	}
	return p
}

// FailNext makes the next call of op fail with code.
func (p *MemoryProvider) FailNext(op string, code ErrorCode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext[op] = code
}

// Calls returns how many times op has been called.
func (p *MemoryProvider) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// Len returns the number of stored contacts.
func (p *MemoryProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.contacts)
}

// Get returns a copy of the stored contact with id.
func (p *MemoryProvider) Get(id string) (*Contact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.contacts[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// begin records a call and returns the injected failure, if any.
func (p *MemoryProvider) begin(ctx context.Context, op string) error {
	p.calls[op]++
	if err := ctx.Err(); err != nil {
		return NewError(op, UnknownError, err)
	}
	if code, ok := p.failNext[op]; ok {
		delete(p.failNext, op)
		return NewError(op, code, fmt.Errorf("injected failure"))
	}
	return nil
}

// Save implements Provider.
func (p *MemoryProvider) Save(ctx context.Context, c *Contact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, OpSave); err != nil {
		return err
	}

	now := p.now()
	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = now
	} else if _, ok := p.contacts[c.ID]; !ok {
		return NewError(OpSave, UnknownError, fmt.Errorf("%s: %w", c.ID, ErrNotFound))
	}
	c.UpdatedAt = now
	p.contacts[c.ID] = c.Clone()
	return nil
}

// Remove implements Provider.
func (p *MemoryProvider) Remove(ctx context.Context, c *Contact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, OpRemove); err != nil {
		return err
	}

	if _, ok := p.contacts[c.ID]; !ok {
		return NewError(OpRemove, UnknownError, fmt.Errorf("%s: %w", c.ID, ErrNotFound))
	}
	delete(p.contacts, c.ID)
	return nil
}

// Find implements Provider.
func (p *MemoryProvider) Find(ctx context.Context, fields []string, opts FindOptions) ([]*Contact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, OpFind); err != nil {
		return nil, err
	}

	all := make([]*Contact, 0, len(p.contacts))
	for _, c := range p.contacts {
		all = append(all, c.Clone())
	}
	return Filter(all, fields, opts), nil
}
