package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posebridge/internal/channel"
	"github.com/ayusman/posebridge/internal/pipeline"
	"github.com/ayusman/posebridge/internal/plugin"
	"github.com/ayusman/posebridge/internal/pose"
	"github.com/ayusman/posebridge/internal/store"
	"github.com/ayusman/posebridge/internal/tracking"
)

var errDeviceLost = errors.New("tracked device lost")

// Run starts the session and alternates between device discovery and the
// frame loop until ctx is cancelled. A device that disappears sends the loop
// back to discovery with the smoothing state and gesture timers cleared.
func (a *App) Run(ctx context.Context) error {
	a.startSession()
	defer a.endSession()

	for {
		devs, ok := a.discover(ctx)
		if !ok {
			return nil
		}
		if err := a.stream(ctx, devs); err == nil {
			return nil
		}

		a.session.Restart()
		a.mu.Lock()
		a.status.HeadDevice, a.status.HandDevice = -1, -1
		a.tracking = false
		a.mu.Unlock()
	}
}

func (a *App) discover(ctx context.Context) (tracking.Devices, bool) {
	a.setState(StateDiscovering)

	waiting := false
	for {
		if ctx.Err() != nil {
			return tracking.Devices{}, false
		}

		devs, err := tracking.FindDevices(a.cfg.System, a.cfg.HandRole)
		if err == nil {
			log.Printf("Tracking devices found: head=%d hand=%d", devs.Head, devs.Hand)
			a.mu.Lock()
			a.status.HeadDevice, a.status.HandDevice = devs.Head, devs.Hand
			a.mu.Unlock()
			return devs, true
		}
		if !waiting {
			log.Printf("Waiting for tracking devices: %v", err)
			waiting = true
		}

		select {
		case <-ctx.Done():
			return tracking.Devices{}, false
		case <-a.clock.After(a.cfg.RescanInterval):
		}
	}
}

// stream runs frames until ctx ends (nil) or a device is lost.
func (a *App) stream(ctx context.Context, devs tracking.Devices) error {
	a.setState(StateStreaming)

	ticker := a.clock.NewTicker(a.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := a.frame(devs); err != nil {
				log.Printf("Tracking interrupted: %v", err)
				return err
			}
		}
	}
}

// frame processes one tick. Only a disconnected device is an error; frames
// without valid poses are counted as skipped.
func (a *App) frame(devs tracking.Devices) error {
	now := a.clock.Now()

	head, err := tracking.Sample(a.cfg.System, devs.Head, pose.RoleHead)
	if errors.Is(err, tracking.ErrDeviceNotFound) {
		return fmt.Errorf("head: %w", errDeviceLost)
	}
	hand, err := tracking.Sample(a.cfg.System, devs.Hand, pose.RoleHand)
	if errors.Is(err, tracking.ErrDeviceNotFound) {
		return fmt.Errorf("hand: %w", errDeviceLost)
	}

	out, err := a.pipeline.Process(a.session, pipeline.Input{Head: head, Hand: hand, Now: now})
	if err != nil {
		a.mu.Lock()
		a.status.FramesSkipped++
		if a.tracking {
			log.Printf("Tracking lost: %v", err)
			a.tracking = false
		}
		a.mu.Unlock()
		return nil
	}

	a.mu.Lock()
	if !a.tracking {
		log.Println("Tracking acquired")
		a.tracking = true
	}
	a.mu.Unlock()

	a.recordCalibrations(out.Calibrations, now)
	a.handleEvents(out)
	sent := a.send(out.Packet)
	a.publish(out, now, sent)
	return nil
}

func (a *App) send(packet []byte) bool {
	a.mu.RLock()
	streaming := a.streaming
	a.mu.RUnlock()

	sent := false
	if streaming && a.cfg.Sink != nil {
		err := a.cfg.Sink.Write(packet)
		switch {
		case err == nil:
			sent = true
		case !errors.Is(err, channel.ErrNoConsumer):
			log.Printf("Failed to write packet: %v", err)
		}
	}

	a.mu.Lock()
	a.status.FramesProcessed++
	if sent {
		a.status.FramesSent++
	} else if streaming {
		a.status.FramesDropped++
	}
	a.mu.Unlock()
	return sent
}

func (a *App) recordCalibrations(changes []pipeline.Calibration, now time.Time) {
	for _, c := range changes {
		log.Printf("Calibration %s: offset (%.3f, %.3f, %.3f)", c.Source, c.Offset.X, c.Offset.Y, c.Offset.Z)

		a.mu.Lock()
		a.status.Calibration = [3]float64{c.Offset.X, c.Offset.Y, c.Offset.Z}
		a.mu.Unlock()

		if a.cfg.Store == nil {
			continue
		}
		err := a.cfg.Store.Calibrations().Record(&store.Calibration{
			SessionID: a.session.ID,
			X:         c.Offset.X,
			Y:         c.Offset.Y,
			Z:         c.Offset.Z,
			Source:    string(c.Source),
			CreatedAt: now,
		})
		if err != nil {
			log.Printf("Failed to record calibration: %v", err)
		}
	}
}

func (a *App) handleEvents(out pipeline.Output) {
	for _, e := range out.Events {
		log.Printf("Gesture fired: %s (distance %.3f)", e.Name, e.Distance)

		at := e.At
		a.mu.Lock()
		a.status.LastGesture = e.Name
		a.status.LastGestureAt = &at
		a.mu.Unlock()

		if a.cfg.Store != nil {
			err := a.cfg.Store.Events().Record(&store.GestureEvent{
				ID:        uuid.NewString(),
				SessionID: a.session.ID,
				Name:      e.Name,
				Distance:  e.Distance,
				X:         e.Position.X,
				Y:         e.Position.Y,
				Z:         e.Position.Z,
				FiredAt:   e.At,
			})
			if err != nil {
				log.Printf("Failed to record gesture event: %v", err)
			}
		}

		if a.cfg.Dispatcher != nil {
			err := a.cfg.Dispatcher.Dispatch(plugin.Request{
				Gesture:   e.Name,
				SessionID: a.session.ID,
				FiredAt:   e.At,
				Position:  plugin.Position{X: e.Position.X, Y: e.Position.Y, Z: e.Position.Z},
			})
			if err != nil {
				log.Printf("Plugin dispatch skipped: %v", err)
			}
		}
	}
}

func (a *App) publish(out pipeline.Output, now time.Time, sent bool) {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	if a.cfg.OnFrame == nil {
		return
	}

	rel := out.Relative.Position
	f := Frame{
		Seq:       seq,
		Time:      now,
		Relative:  [3]float64{rel.X, rel.Y, rel.Z},
		Hand:      out.Hand,
		Head:      out.Head,
		OutHand:   out.Mapped.Hand,
		OutHead:   out.Mapped.Head,
		DummyHand: out.DummyHand,
		Sent:      sent,
	}
	for _, e := range out.Events {
		f.Gestures = append(f.Gestures, e.Name)
	}
	a.cfg.OnFrame(f)
}

func (a *App) startSession() {
	a.setState(StateIdle)
	if a.cfg.Store == nil {
		return
	}
	err := a.cfg.Store.Sessions().Create(&store.Session{
		ID:        a.session.ID,
		Format:    string(a.cfg.Pipeline.Format),
		StartedAt: a.session.StartedAt,
	})
	if err != nil {
		log.Printf("Failed to record session start: %v", err)
	}
}

func (a *App) endSession() {
	a.mu.Lock()
	a.status.State = StateStopped
	frames := a.status.FramesProcessed
	a.mu.Unlock()

	if a.cfg.Store == nil {
		return
	}
	if err := a.cfg.Store.Sessions().End(a.session.ID, int64(frames), a.clock.Now()); err != nil {
		log.Printf("Failed to record session end: %v", err)
	}
}
