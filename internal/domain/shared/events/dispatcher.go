package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spendwise/spendwise/internal/shared/goroutine"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var (
	ErrDispatcherNotRunning = errors.New("event dispatcher is not running")
	ErrDispatcherFull       = errors.New("event channel is full")
)

// InMemoryEventDispatcher delivers events on a single background goroutine.
// Publish never blocks; a full buffer is reported to the caller.
type InMemoryEventDispatcher struct {
	handlers       map[string][]EventHandler
	mu             sync.RWMutex
	running        bool
	stopCh         chan struct{}
	eventCh        chan DomainEvent
	wg             sync.WaitGroup
	handlerTimeout time.Duration
	log            logger.Interface
}

func NewInMemoryEventDispatcher(bufferSize int, log logger.Interface) *InMemoryEventDispatcher {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	return &InMemoryEventDispatcher{
		handlers:       make(map[string][]EventHandler),
		stopCh:         make(chan struct{}),
		eventCh:        make(chan DomainEvent, bufferSize),
		handlerTimeout: 10 * time.Second,
		log:            log,
	}
}

func (d *InMemoryEventDispatcher) Publish(event DomainEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return ErrDispatcherNotRunning
	}

	select {
	case d.eventCh <- event:
		return nil
	default:
		return ErrDispatcherFull
	}
}

func (d *InMemoryEventDispatcher) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

func (d *InMemoryEventDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("event dispatcher is already running")
	}

	d.running = true
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.processEvents()
	}()

	return nil
}

// Stop refuses new events and returns once every buffered event is handled.
func (d *InMemoryEventDispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrDispatcherNotRunning
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	return nil
}

func (d *InMemoryEventDispatcher) processEvents() {
	for {
		select {
		case <-d.stopCh:
			for {
				select {
				case event := <-d.eventCh:
					d.handleEvent(event)
				default:
					return
				}
			}
		case event := <-d.eventCh:
			d.handleEvent(event)
		}
	}
}

func (d *InMemoryEventDispatcher) handleEvent(event DomainEvent) {
	d.mu.RLock()
	handlers := d.handlers[event.GetEventType()]
	d.mu.RUnlock()

	for _, h := range handlers {
		goroutine.Run(d.log, "event:"+event.GetEventType(), func() {
			ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
			defer cancel()
			if err := h.Handle(ctx, event); err != nil {
				d.log.Errorw("event handler failed",
					"event_type", event.GetEventType(),
					"aggregate_id", event.GetAggregateID(),
					"error", err,
				)
			}
		})
	}
}
