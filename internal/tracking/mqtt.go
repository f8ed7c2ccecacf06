package tracking

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/posebridge/internal/timeutil"
)

// MQTTConfig configures the MQTT-fed device source.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string

	// StaleAfter reports a device as not tracking when its last update is
	// older than this. Zero disables the check.
	StaleAfter time.Duration
	Clock      timeutil.Clock
}

// MQTTSystem is a System whose device table is fed by a runtime shim
// publishing one JSON DeviceState per message on <prefix>/device/<index>.
//
// The subscription is made on every (re)connect, and the table is cleared
// when the broker connection drops so the bridge falls back to discovery
// instead of replaying the last pose.
type MQTTSystem struct {
	*Table
	client     mqtt.Client
	topic      string
	staleAfter time.Duration
	clock      timeutil.Clock

	mu   sync.Mutex
	seen map[int]time.Time
}

// NewMQTTSystem creates an unconnected MQTT-fed system.
func NewMQTTSystem(cfg MQTTConfig) *MQTTSystem {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	s := &MQTTSystem{
		Table:      NewTable(),
		topic:      cfg.TopicPrefix + "/device/+",
		staleAfter: cfg.StaleAfter,
		clock:      cfg.Clock,
		seen:       make(map[int]time.Time),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)
	s.client = mqtt.NewClient(opts)
	return s
}

// Connect connects to the broker. Device updates are subscribed to from the
// connect handler.
func (s *MQTTSystem) Connect() error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSystem) Close() {
	s.client.Disconnect(250)
}

// Pose implements System. A device whose updates stopped arriving is
// reported as not tracking.
func (s *MQTTSystem) Pose(index int) (DevicePose, error) {
	dp, err := s.Table.Pose(index)
	if err != nil || s.staleAfter <= 0 {
		return dp, err
	}

	s.mu.Lock()
	last, ok := s.seen[index]
	s.mu.Unlock()
	if !ok || s.clock.Now().Sub(last) > s.staleAfter {
		dp.Valid = false
	}
	return dp, nil
}

func (s *MQTTSystem) onConnect(c mqtt.Client) {
	token := c.Subscribe(s.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.handle(msg.Payload()); err != nil {
			log.Printf("Ignoring device update on %s: %v", msg.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("Failed to subscribe to %s: %v", s.topic, token.Error())
		return
	}
	log.Printf("Subscribed to %s", s.topic)
}

func (s *MQTTSystem) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("Tracking broker connection lost: %v", err)
	s.Clear()
	s.mu.Lock()
	s.seen = make(map[int]time.Time)
	s.mu.Unlock()
}

func (s *MQTTSystem) handle(payload []byte) error {
	var st DeviceState
	if err := json.Unmarshal(payload, &st); err != nil {
		return fmt.Errorf("failed to decode device state: %w", err)
	}
	if st.Index < 0 || st.Index >= s.MaxDevices() {
		return fmt.Errorf("device index %d out of range", st.Index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !st.Connected {
		s.Remove(st.Index)
		delete(s.seen, st.Index)
		return nil
	}
	st.HasPose = true
	s.Set(st)
	s.seen[st.Index] = s.clock.Now()
	return nil
}
