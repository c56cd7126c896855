// Package adapters wires the core slam.Processor to the downstream,
// non-core-contract systems named in its domain stack: MQTT pose
// telemetry, GeoJSON trajectory export, and SVG map snapshots.
package adapters

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/lidarslam/slam"
)

// PoseTelemetry is one published pose sample, generalized from the
// teacher's flat VacuumPosition shape to a 6-DoF sweep pose.
type PoseTelemetry struct {
	Tx         float64 `json:"tx"`
	Ty         float64 `json:"ty"`
	Tz         float64 `json:"tz"`
	Rx         float64 `json:"rx"`
	Ry         float64 `json:"ry"`
	Rz         float64 `json:"rz"`
	SweepIndex int     `json:"sweepIndex"`
	Timestamp  int64   `json:"timestamp"`
}

// TelemetryPublisher publishes committed sweep poses to MQTT, fire-and-forget
// like the teacher's Publisher (QoS 0, retained for the latest pose).
type TelemetryPublisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool

	mu     sync.RWMutex
	latest *PoseTelemetry
}

// NewTelemetryPublisher constructs a publisher. If client is nil, publishing
// is disabled (useful for tests and offline runs).
func NewTelemetryPublisher(client mqtt.Client, publishPrefix string) *TelemetryPublisher {
	if publishPrefix == "" {
		publishPrefix = "lidarslam"
	}
	return &TelemetryPublisher{
		client:        client,
		publishPrefix: publishPrefix,
		qos:           0,
		retain:        true,
	}
}

// PublishPose publishes the sweep's committed world pose, with the sweep
// index, to "{prefix}/pose"; no other topic is published.
func (p *TelemetryPublisher) PublishPose(sweepIndex int, pose slam.Pose) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	v := pose.AsVector6()
	tx, ty, tz, rx, ry, rz := v[0], v[1], v[2], v[3], v[4], v[5]

	sample := &PoseTelemetry{
		Tx: tx, Ty: ty, Tz: tz,
		Rx: rx, Ry: ry, Rz: rz,
		SweepIndex: sweepIndex,
		Timestamp:  time.Now().Unix(),
	}

	p.mu.Lock()
	p.latest = sample
	p.mu.Unlock()

	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshaling pose telemetry: %w", err)
	}

	topic := fmt.Sprintf("%s/pose", p.publishPrefix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("published pose for sweep %d: (%.2f, %.2f, %.2f)", sweepIndex, tx, ty, tz)
	return nil
}

// LatestPose returns the last published sample, if any.
func (p *TelemetryPublisher) LatestPose() (*PoseTelemetry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return nil, false
	}
	cp := *p.latest
	return &cp, true
}

// SetQoS sets the MQTT quality-of-service level for subsequent publishes.
func (p *TelemetryPublisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}
