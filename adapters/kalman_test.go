package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kwv/lidarslam/slam"
)

func TestTrajectorySmoother_FirstUpdateReturnsRawUnchanged(t *testing.T) {
	s := NewTrajectorySmoother(0.01, 0.25, 0.1)
	raw := slam.Pose{Tx: 1, Ty: 2, Tz: 3, Rx: 0.1}
	out := s.Update(raw)
	assert.Equal(t, raw, out)
}

func TestTrajectorySmoother_RotationPassesThroughUnsmoothed(t *testing.T) {
	s := NewTrajectorySmoother(0.01, 0.25, 0.1)
	s.Update(slam.Pose{Tx: 0, Ty: 0, Tz: 0})
	out := s.Update(slam.Pose{Tx: 1, Ty: 0, Tz: 0, Rx: 0.42, Ry: 0.1, Rz: -0.2})
	assert.Equal(t, 0.42, out.Rx)
	assert.Equal(t, 0.1, out.Ry)
	assert.Equal(t, -0.2, out.Rz)
}

func TestTrajectorySmoother_SmoothsTowardConstantVelocityTrack(t *testing.T) {
	s := NewTrajectorySmoother(0.001, 1.0, 0.1)
	var last slam.Pose
	for i := 0; i < 20; i++ {
		last = s.Update(slam.Pose{Tx: float64(i) * 0.1})
	}
	// A steady constant-velocity track should converge close to its true
	// position despite per-step measurement noise variance.
	assert.InDelta(t, 1.9, last.Tx, 0.5)
}
