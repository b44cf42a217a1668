package particles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_RebuildsSamplerOnCameraOrFieldChange(t *testing.T) {
	e := NewEngine(20, 1, DefaultParams())
	cam := gulfCamera()

	e.Step(cam)
	e.Step(cam)
	assert.Equal(t, 1, e.SamplerRebuilds())

	cam.Zoom = 11
	e.Step(cam)
	assert.Equal(t, 2, e.SamplerRebuilds())

	e.SetField(eastwardField())
	e.Step(cam)
	assert.Equal(t, 3, e.SamplerRebuilds())

	assert.Equal(t, uint64(4), e.State().Tick)
	assert.Len(t, e.State().Particles, 20)
}

func TestEngine_SetParams(t *testing.T) {
	e := NewEngine(5, 1, DefaultParams())
	cam := gulfCamera()
	e.Step(cam)

	p := DefaultParams()
	p.VectorScale = 3
	e.SetParams(p)
	e.Step(cam)
	assert.Equal(t, 1, e.SamplerRebuilds(), "scale change keeps the sampler")

	p.SearchDegrees = 0.5
	e.SetParams(p)
	e.Step(cam)
	assert.Equal(t, 2, e.SamplerRebuilds())
}
