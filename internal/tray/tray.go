// Package tray provides the system tray menu for the pose bridge.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onZero   func()
	onReset  func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuConsumer    *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance with streaming enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when streaming is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnZero sets the callback for "Zero Here".
func (t *Tray) OnZero(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onZero = fn
}

// OnReset sets the callback for "Reset Calibration".
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("PoseBridge")
	systray.SetTooltip("VR pose bridge")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("● Streaming", "Toggle packet output")
	t.menuConsumer = systray.AddMenuItem("Consumer: waiting", "Packet consumer connection")
	t.menuConsumer.Disable()
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem("Last: none", "Last fired gesture")
	t.menuLastGesture.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuZero := systray.AddMenuItem("Zero Here", "Recalibrate the hand to the current position")
	menuReset := systray.AddMenuItem("Reset Calibration", "Clear the calibration offset")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit PoseBridge")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuZero.ClickedCh:
				t.call(func() func() { return t.onZero })
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Streaming")
	} else {
		t.menuToggle.SetTitle("○ Paused")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback chosen by get outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastGesture != nil {
		if name == "" {
			t.menuLastGesture.SetTitle("Last: none")
		} else {
			t.menuLastGesture.SetTitle("Last: " + name)
		}
	}
}

// SetConsumerConnected updates the consumer line in the menu.
func (t *Tray) SetConsumerConnected(connected bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuConsumer != nil {
		if connected {
			t.menuConsumer.SetTitle("Consumer: connected")
		} else {
			t.menuConsumer.SetTitle("Consumer: waiting")
		}
	}
}

// IsEnabled returns the current streaming state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
