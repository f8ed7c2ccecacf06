package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrQueueFull is returned when an event is dropped because the worker is
// still busy with earlier ones.
var ErrQueueFull = errors.New("plugin queue full")

// Result reports the outcome of one dispatched request.
type Result struct {
	Binding  Binding
	Response *Response
	Err      error
}

type job struct {
	binding Binding
	req     Request
}

// Dispatcher runs bound plugin actions for fired gestures on a single worker
// goroutine, so the frame loop never waits on a plugin process.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	bindings map[string][]Binding

	queue chan job
	wg    sync.WaitGroup

	// OnResult, if set, is called on the worker goroutine after each run.
	OnResult func(Result)
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(m *Manager, e *Executor, bindings []Binding, queueSize int) *Dispatcher {
	d := &Dispatcher{
		manager:  m,
		executor: e,
		bindings: make(map[string][]Binding),
		queue:    make(chan job, queueSize),
	}
	for _, b := range bindings {
		d.bindings[b.Gesture] = append(d.bindings[b.Gesture], b)
	}
	return d
}

// Bound reports whether any action is bound to gesture.
func (d *Dispatcher) Bound(gesture string) bool {
	return len(d.bindings[gesture]) > 0
}

// Dispatch queues every action bound to req.Gesture. It never blocks.
func (d *Dispatcher) Dispatch(req Request) error {
	for _, b := range d.bindings[req.Gesture] {
		r := req
		r.Action = b.Action
		r.Params = b.Params
		select {
		case d.queue <- job{binding: b, req: r}:
		default:
			return fmt.Errorf("%w: dropped %s/%s for %s", ErrQueueFull, b.Plugin, b.Action, req.Gesture)
		}
	}
	return nil
}

// Start launches the worker. It processes queued jobs until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(ctx)
	}()
}

func (d *Dispatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			res := d.run(ctx, j)
			if res.Err != nil {
				log.Printf("Plugin %s/%s for %s failed: %v", j.binding.Plugin, j.binding.Action, j.req.Gesture, res.Err)
			} else if !res.Response.Success {
				log.Printf("Plugin %s/%s for %s reported error: %s", j.binding.Plugin, j.binding.Action, j.req.Gesture, res.Response.Error)
			}
			if d.OnResult != nil {
				d.OnResult(res)
			}
		}
	}
}

// Wait blocks until the worker started by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, j job) Result {
	res := Result{Binding: j.binding}

	p, err := d.manager.Get(j.binding.Plugin)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", j.binding.Plugin, err)
		return res
	}
	if !p.Manifest.Supports(j.binding.Action) {
		res.Err = fmt.Errorf("plugin %s does not support action %q", p.Manifest.Name, j.binding.Action)
		return res
	}

	res.Response, res.Err = d.executor.Execute(ctx, p, &j.req)
	return res
}
