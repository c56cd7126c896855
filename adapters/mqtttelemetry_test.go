package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kwv/lidarslam/slam"
)

func TestNewTelemetryPublisher_DefaultsPrefix(t *testing.T) {
	p := NewTelemetryPublisher(nil, "")
	assert.Equal(t, "lidarslam", p.publishPrefix)
	assert.EqualValues(t, 0, p.qos)
	assert.True(t, p.retain)
}

func TestTelemetryPublisher_NilClientReturnsError(t *testing.T) {
	p := NewTelemetryPublisher(nil, "robot")
	err := p.PublishPose(1, slam.Pose{Tx: 1, Ty: 2, Tz: 3})
	assert.Error(t, err)

	_, ok := p.LatestPose()
	assert.False(t, ok)
}

func TestTelemetryPublisher_SetQoSIgnoresOutOfRange(t *testing.T) {
	p := NewTelemetryPublisher(nil, "robot")
	p.SetQoS(2)
	assert.EqualValues(t, 2, p.qos)

	p.SetQoS(5)
	assert.EqualValues(t, 2, p.qos) // unchanged: 5 is not a valid QoS level
}
