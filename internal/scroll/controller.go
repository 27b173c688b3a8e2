package scroll

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrUnknownContainer   = errors.New("scroll: unknown container")
	ErrDuplicateContainer = errors.New("scroll: duplicate container")
	ErrAlreadyResolved    = errors.New("scroll: entry already resolved")
)

// Controller turns a scroll offset into model orientation for every loaded
// entry. It is driven from a single event loop and holds no locks.
type Controller struct {
	entries []*Entry
	byName  map[string]*Entry
	log     *zap.Logger
}

func NewController(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		byName: make(map[string]*Entry),
		log:    log,
	}
}

func (c *Controller) Add(entry *Entry) error {
	if _, exists := c.byName[entry.Container]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateContainer, entry.Container)
	}
	c.entries = append(c.entries, entry)
	c.byName[entry.Container] = entry
	return nil
}

func (c *Controller) Entry(container string) *Entry {
	return c.byName[container]
}

func (c *Controller) Entries() []*Entry {
	return c.entries
}

// Attach stores the loaded model for container. The model keeps its current
// orientation until the next scroll event.
func (c *Controller) Attach(container string, model Orientable) error {
	entry, err := c.pending(container)
	if err != nil {
		return err
	}
	entry.model = model
	entry.state = Loaded
	c.log.Info("Model attached", zap.String("container", container))
	return nil
}

// Fail marks container as permanently unloaded and logs the cause once.
func (c *Controller) Fail(container string, cause error) error {
	entry, err := c.pending(container)
	if err != nil {
		return err
	}
	entry.state = Failed
	entry.err = cause
	c.log.Error("An error happened while loading the model",
		zap.String("container", container),
		zap.Error(cause))
	return nil
}

func (c *Controller) pending(container string) (*Entry, error) {
	entry, ok := c.byName[container]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, container)
	}
	if entry.state != Pending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyResolved, container, entry.state)
	}
	return entry, nil
}

// SetCoefficients replaces the factors of one entry. The new values apply
// from the next scroll event.
func (c *Controller) SetCoefficients(container string, coefficients Coefficients) error {
	entry, ok := c.byName[container]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContainer, container)
	}
	entry.Coefficients = coefficients
	return nil
}

// OnScroll recomputes every loaded entry's orientation from offset.
func (c *Controller) OnScroll(offset float64) {
	for _, entry := range c.entries {
		entry.apply(offset)
	}
}
