package tracking

import (
	"sync"

	"github.com/ayusman/posebridge/internal/posemath"
)

// DefaultMaxDevices matches the runtime's device slot count.
const DefaultMaxDevices = 64

// DeviceState is everything the bridge knows about one slot.
type DeviceState struct {
	Index     int                   `json:"index"`
	Connected bool                  `json:"connected"`
	Class     DeviceClass           `json:"class"`
	Role      HandRole              `json:"role,omitempty"`
	Valid     bool                  `json:"valid"`
	Matrix    posemath.Transform3x4 `json:"matrix"`
	HasPose   bool                  `json:"-"`
}

// Table is an in-memory System. Writers update device slots from any
// goroutine while the frame loop reads them.
type Table struct {
	mu      sync.RWMutex
	devices map[int]DeviceState
	max     int
}

// NewTable creates an empty table with DefaultMaxDevices slots.
func NewTable() *Table {
	return &Table{
		devices: make(map[int]DeviceState),
		max:     DefaultMaxDevices,
	}
}

// Set stores the state of one slot. Slots outside the table are ignored.
func (t *Table) Set(s DeviceState) {
	if s.Index < 0 || s.Index >= t.max {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices[s.Index] = s
}

// SetPose updates only the pose of a slot.
func (t *Table) SetPose(index int, m posemath.Transform3x4, valid bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.devices[index]
	if !ok {
		return
	}
	s.Matrix, s.Valid, s.HasPose = m, valid, true
	t.devices[index] = s
}

// Remove clears a slot.
func (t *Table) Remove(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.devices, index)
}

// Clear removes every device.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = make(map[int]DeviceState)
}

// MaxDevices implements System.
func (t *Table) MaxDevices() int {
	return t.max
}

// IsConnected implements System.
func (t *Table) IsConnected(index int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.devices[index].Connected
}

// Class implements System.
func (t *Table) Class(index int) DeviceClass {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.devices[index].Class
}

// Role implements System.
func (t *Table) Role(index int) HandRole {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.devices[index].Role
}

// Pose implements System.
func (t *Table) Pose(index int) (DevicePose, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.devices[index]
	if !ok || !s.HasPose {
		return DevicePose{}, ErrNoData
	}
	return DevicePose{Transform: s.Matrix, Valid: s.Valid}, nil
}

// NewDemoTable returns a table with a standing headset and a right-hand
// controller held in front of it, for running the bridge without hardware.
func NewDemoTable() *Table {
	t := NewTable()
	t.Set(DeviceState{
		Index:     0,
		Connected: true,
		Class:     ClassHMD,
		Valid:     true,
		HasPose:   true,
		Matrix:    posemath.TransformFrom(posemath.Identity(), posemath.Vector3{Y: 1.7}),
	})
	t.Set(DeviceState{
		Index:     1,
		Connected: true,
		Class:     ClassController,
		Role:      RoleRight,
		Valid:     true,
		HasPose:   true,
		Matrix:    posemath.TransformFrom(posemath.Identity(), posemath.Vector3{X: 0.2, Y: 1.4, Z: -0.3}),
	})
	return t
}
