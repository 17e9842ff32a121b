package scene

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LineSink receives line segments. LineRenderer satisfies it.
type LineSink interface {
	PushLine(posA, colorA, posB, colorB mgl32.Vec3)
}

// Primitive is a piece of static sandbox geometry drawn as line segments.
type Primitive interface {
	// Name identifies the primitive in logs.
	Name() string

	// Draw pushes the primitive's segments for time t.
	//
	// Parameters:
	//   - sink: the receiver of every segment
	//   - t: seconds since the window opened
	Draw(sink LineSink, t float32)
}

var diamondVertices = []mgl32.Vec3{
	{-0.5, 0.5, 0.5},  // top left
	{0.0, 0.5, 0.0},   // top
	{0.5, 0.5, 0.5},   // top right
	{0.5, 0.0, 0.0},   // right
	{0.5, -0.5, 0.5},  // bottom right
	{0.0, -0.5, 0.0},  // bottom
	{-0.5, -0.5, 0.5}, // bottom left
	{-0.5, 0.0, 0.0},  // left
}

var diamondIndices = []int{
	0, 1, 7,
	1, 2, 3,
	3, 4, 5,
	7, 5, 6,
	1, 3, 5,
	1, 5, 7,
}

// diamondEdges is the sorted set of unique edges of diamondIndices.
var diamondEdges = uniqueEdges(diamondIndices)

func uniqueEdges(indices []int) [][2]int {
	seen := make(map[[2]int]bool)
	for i := 0; i+2 < len(indices); i += 3 {
		tri := indices[i : i+3]
		for j := range 3 {
			a, b := tri[j], tri[(j+1)%3]
			seen[[2]int{min(a, b), max(a, b)}] = true
		}
	}

	edges := make([][2]int, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// CycleColor returns the three-phase triangle-wave color of the sandbox diamond at time t.
// Each channel ramps between 0 and 1 with a period of 4 seconds, a third of a cycle apart.
func CycleColor(t float32) mgl32.Vec3 {
	const third = float32(1.0 / 3.0)
	x := 0.5 * t
	return mgl32.Vec3{
		common.TriangleWave(x),
		common.TriangleWave(x + third),
		common.TriangleWave(x - third),
	}
}

// Diamond is the faceted solid of the sandbox drawn as its unique triangle edges.
type Diamond struct {
	Offset mgl32.Vec3
	Scale  float32
}

func (d Diamond) Name() string { return "diamond" }

func (d Diamond) Draw(sink LineSink, t float32) {
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	color := CycleColor(t)
	for _, e := range diamondEdges {
		a := diamondVertices[e[0]].Mul(scale).Add(d.Offset)
		b := diamondVertices[e[1]].Mul(scale).Add(d.Offset)
		sink.PushLine(a, color, b, color)
	}
}

// WireCube is an axis-aligned cube outline.
type WireCube struct {
	Center mgl32.Vec3
	Size   float32
	Color  mgl32.Vec3
}

func (c WireCube) Name() string { return "wire cube" }

func (c WireCube) Draw(sink LineSink, _ float32) {
	h := c.Size / 2
	corner := func(i int) mgl32.Vec3 {
		p := mgl32.Vec3{-h, -h, -h}
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				p[axis] = h
			}
		}
		return p.Add(c.Center)
	}
	// corners differing in exactly one bit share an edge
	for i := range 8 {
		for axis := range 3 {
			j := i | 1<<axis
			if j != i {
				sink.PushLine(corner(i), c.Color, corner(j), c.Color)
			}
		}
	}
}

// Spiral is a helix around the Y axis sampled into Samples points, colored from From to To.
// Spin rotates the helix by that many radians per second.
type Spiral struct {
	Center  mgl32.Vec3
	Radius  float32
	Height  float32
	Turns   float32
	Samples int
	Spin    float32
	From    mgl32.Vec3
	To      mgl32.Vec3
}

func (s Spiral) Name() string { return "spiral" }

// Point returns sample i of the helix at time t.
func (s Spiral) Point(i int, t float32) mgl32.Vec3 {
	if s.Samples < 2 {
		return s.Center
	}
	f := float32(i) / float32(s.Samples-1)
	theta := f*s.Turns*2*math32.Pi + s.Spin*t
	return s.Center.Add(mgl32.Vec3{
		s.Radius * math32.Cos(theta),
		-s.Height/2 + s.Height*f,
		s.Radius * math32.Sin(theta),
	})
}

func (s Spiral) color(i int) mgl32.Vec3 {
	f := float32(i) / float32(s.Samples-1)
	return s.From.Add(s.To.Sub(s.From).Mul(f))
}

func (s Spiral) Draw(sink LineSink, t float32) {
	if s.Samples < 2 {
		return
	}
	prev := s.Point(0, t)
	for i := 1; i < s.Samples; i++ {
		next := s.Point(i, t)
		sink.PushLine(prev, s.color(i-1), next, s.color(i))
		prev = next
	}
}

// Axes draws the X, Y and Z axes from Origin in red, green and blue.
type Axes struct {
	Origin mgl32.Vec3
	Length float32
}

func (a Axes) Name() string { return "axes" }

func (a Axes) Draw(sink LineSink, _ float32) {
	for axis := range 3 {
		var dir, color mgl32.Vec3
		dir[axis] = a.Length
		color[axis] = 1
		sink.PushLine(a.Origin, color, a.Origin.Add(dir), color)
	}
}
