package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/storage"
)

// Catalog maps type ids to templates and instantiates them.
type Catalog struct {
	templates map[item.TypeID]*Template

	mu sync.RWMutex
}

// New indexes every template in store by type id.
func New(store storage.Storer[*Template]) (*Catalog, error) {
	c := &Catalog{
		templates: map[item.TypeID]*Template{},
	}

	for id, t := range store.GetAll() {
		if err := c.Register(t); err != nil {
			return nil, fmt.Errorf("registering %s: %w", id, err)
		}
	}

	return c, nil
}

// Register adds a template. Type ids must be unique.
func (c *Catalog) Register(t *Template) error {
	if t == nil {
		return fmt.Errorf("template is nil")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.templates[t.TypeID]; ok {
		return fmt.Errorf("type_id %d already used by %q", t.TypeID, existing.Name)
	}
	c.templates[t.TypeID] = t
	return nil
}

func (c *Catalog) Template(typeID item.TypeID) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.templates[typeID]
	return t, ok
}

// TypeIDs returns every registered type id in ascending order.
func (c *Catalog) TypeIDs() []item.TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]item.TypeID, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Instantiate builds a fresh item of the given type.
func (c *Catalog) Instantiate(ctx context.Context, typeID item.TypeID) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, ok := c.Template(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, typeID)
	}

	return t.Build(), nil
}
