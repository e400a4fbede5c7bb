package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Repository implements sitecontent.Repository using in-memory storage
type Repository struct {
	projects  *collection[sitecontent.Project]
	events    *eventCollection
	news      *collection[sitecontent.NewsItem]
	inquiries *collection[sitecontent.Inquiry]
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		projects:  newCollection(func(p *sitecontent.Project) string { return p.ID }),
		events:    &eventCollection{newCollection(func(e *sitecontent.EventItem) string { return e.ID })},
		news:      newCollection(func(n *sitecontent.NewsItem) string { return n.ID }),
		inquiries: newCollection(func(i *sitecontent.Inquiry) string { return i.ID }),
	}
}

func (r *Repository) Projects() sitecontent.RecordStore[sitecontent.Project] { return r.projects }
func (r *Repository) Events() sitecontent.EventStore                         { return r.events }
func (r *Repository) News() sitecontent.RecordStore[sitecontent.NewsItem]    { return r.news }
func (r *Repository) Inquiries() sitecontent.InquiryStore                    { return r.inquiries }

// collection keeps records encoded as JSON so callers never share memory
// with the store, and remembers insertion order.
type collection[T any] struct {
	mu    sync.RWMutex
	idOf  func(*T) string
	order []string
	docs  map[string][]byte
}

func newCollection[T any](idOf func(*T) string) *collection[T] {
	return &collection[T]{
		idOf: idOf,
		docs: make(map[string][]byte),
	}
}

func decode[T any](doc []byte) (*T, error) {
	var record T
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}

func (c *collection[T]) List(ctx context.Context) ([]*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*T, 0, len(c.order))
	for _, id := range c.order {
		record, err := decode[T](c.docs[id])
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, exists := c.docs[id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}
	return decode[T](doc)
}

func (c *collection[T]) Create(ctx context.Context, record *T) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	id := c.idOf(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return sitecontent.ErrAlreadyExists
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) Update(ctx context.Context, record *T) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	id := c.idOf(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; !exists {
		return sitecontent.ErrNotFound
	}
	c.docs[id] = doc
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; !exists {
		return sitecontent.ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

type eventCollection struct {
	*collection[sitecontent.EventItem]
}

func (c *eventCollection) SetFeatured(ctx context.Context, id string, featured bool) (*sitecontent.EventItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, exists := c.docs[id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}
	event, err := decode[sitecontent.EventItem](doc)
	if err != nil {
		return nil, err
	}
	event.IsFeatured = featured

	if doc, err = json.Marshal(event); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	c.docs[id] = doc
	return event, nil
}
