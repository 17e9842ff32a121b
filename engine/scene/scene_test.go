package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type segment struct {
	a, ca, b, cb mgl32.Vec3
}

type recordingSink struct {
	segments []segment
}

func (r *recordingSink) PushLine(posA, colorA, posB, colorB mgl32.Vec3) {
	r.segments = append(r.segments, segment{posA, colorA, posB, colorB})
}

func TestDiamondEdgesAreUnique(t *testing.T) {
	assert.Len(t, diamondEdges, 13)
	seen := make(map[[2]int]bool)
	for _, e := range diamondEdges {
		assert.Less(t, e[0], e[1])
		assert.False(t, seen[e], "duplicate edge %v", e)
		seen[e] = true
	}
	assert.Equal(t, [2]int{0, 1}, diamondEdges[0])
}

func TestDiamondDraw(t *testing.T) {
	sink := &recordingSink{}
	Diamond{Offset: mgl32.Vec3{0, 0, -1}, Scale: 2}.Draw(sink, 0)

	require.Len(t, sink.segments, 13)
	first := sink.segments[0]
	assert.Equal(t, mgl32.Vec3{-1, 1, 0}, first.a)
	assert.Equal(t, mgl32.Vec3{0, 1, -1}, first.b)
	assert.Equal(t, CycleColor(0), first.ca)
	assert.Equal(t, first.ca, first.cb)
}

func TestCycleColor(t *testing.T) {
	c := CycleColor(0)
	assert.InDelta(t, 1.0, c[0], 1e-6)
	assert.InDelta(t, 2.0/3.0, c[1], 1e-6)
	assert.InDelta(t, 2.0/3.0, c[2], 1e-6)

	// red reaches zero at t=2 and the cycle repeats every 4 seconds
	assert.InDelta(t, 0.0, CycleColor(2)[0], 1e-6)
	for ch := range 3 {
		assert.InDelta(t, CycleColor(1.3)[ch], CycleColor(5.3)[ch], 1e-5)
		assert.GreaterOrEqual(t, CycleColor(0.1)[ch], float32(0))
		assert.LessOrEqual(t, CycleColor(0.1)[ch], float32(1))
	}
}

func TestWireCubeHasTwelveAxisAlignedEdges(t *testing.T) {
	sink := &recordingSink{}
	WireCube{Center: mgl32.Vec3{1, 1, 1}, Size: 2, Color: mgl32.Vec3{1, 1, 1}}.Draw(sink, 0)

	require.Len(t, sink.segments, 12)
	for _, s := range sink.segments {
		d := s.b.Sub(s.a)
		assert.InDelta(t, 2.0, d.Len(), 1e-6)
		for axis := range 3 {
			assert.True(t, s.a[axis] == 0 || s.a[axis] == 2, "corner %v", s.a)
		}
	}
}

func TestSpiralDraw(t *testing.T) {
	sp := Spiral{Radius: 1, Height: 2, Turns: 1, Samples: 5, From: mgl32.Vec3{1, 0, 0}, To: mgl32.Vec3{0, 0, 1}}
	sink := &recordingSink{}
	sp.Draw(sink, 0)

	require.Len(t, sink.segments, 4)
	assert.InDelta(t, 1.0, sink.segments[0].a[0], 1e-6)
	assert.InDelta(t, -1.0, sink.segments[0].a[1], 1e-6)
	assert.InDelta(t, 1.0, sink.segments[3].b[1], 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, sink.segments[0].ca)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, sink.segments[3].cb)

	// consecutive segments share end points
	for i := 1; i < len(sink.segments); i++ {
		assert.Equal(t, sink.segments[i-1].b, sink.segments[i].a)
	}

	sink.segments = nil
	Spiral{Samples: 1}.Draw(sink, 0)
	assert.Empty(t, sink.segments)
}

func TestSpiralSpins(t *testing.T) {
	sp := Spiral{Radius: 1, Turns: 1, Samples: 3, Spin: 1}
	p := sp.Point(0, float32(mgl32.DegToRad(90)))
	assert.InDelta(t, 0.0, p[0], 1e-6)
	assert.InDelta(t, 1.0, p[2], 1e-6)
}

func TestAxes(t *testing.T) {
	sink := &recordingSink{}
	Axes{Length: 3}.Draw(sink, 0)
	require.Len(t, sink.segments, 3)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, sink.segments[1].b)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, sink.segments[2].ca)
}

func TestSceneDraw(t *testing.T) {
	s := NewScene(WithName("test"), WithPrimitive(Axes{Length: 1}), WithPrimitive(Axes{Length: 2}))
	assert.Equal(t, "test", s.Name())
	assert.True(t, s.Active())

	sink := &recordingSink{}
	assert.Equal(t, 2, s.Draw(sink, 0))
	assert.Len(t, sink.segments, 6)

	s.SetActive(false)
	sink.segments = nil
	assert.Equal(t, 0, s.Draw(sink, 0))
	assert.Empty(t, sink.segments)

	s.SetActive(true)
	s.Add(WireCube{Size: 1})
	assert.Len(t, s.Primitives(), 3)
	s.Clear()
	assert.Empty(t, s.Primitives())
}

func TestSceneStartsInactive(t *testing.T) {
	s := NewScene(WithActive(false))
	assert.False(t, s.Active())
	assert.Equal(t, "scene", s.Name())
}

func TestSandboxScene(t *testing.T) {
	s := NewSandboxScene()
	names := []string{}
	for _, p := range s.Primitives() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"diamond", "wire cube", "spiral", "axes"}, names)

	sink := &recordingSink{}
	s.Draw(sink, 1)
	assert.Len(t, sink.segments, 13+12+127+3)
}
