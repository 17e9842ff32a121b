package line_renderer

import "github.com/Carmen-Shannon/oxy-sandbox/common"

// Default shader sources, relative to the working directory of the sandbox binary.
const (
	DefaultWGSLPath     = "assets/shaders/line_renderer.wgsl"
	DefaultVertexPath   = "assets/shaders/line_renderer.vert"
	DefaultFragmentPath = "assets/shaders/line_renderer.frag"
)

// LineRendererBuilderOption is a functional option applied to a line renderer during construction via NewLineRenderer.
type LineRendererBuilderOption func(*lineRenderer)

// WithShaderSources sets the shader files the line program is compiled from.
// The WebGPU device reads wgsl; the OpenGL device reads vertex and fragment.
// Empty strings keep the defaults.
//
// Parameters:
//   - wgsl: path to a WGSL file with vs_main and fs_main entry points
//   - vertex: path to the GLSL vertex shader
//   - fragment: path to the GLSL fragment shader
//
// Returns:
//   - LineRendererBuilderOption: a function that applies the sources to a line renderer
func WithShaderSources(wgsl, vertex, fragment string) LineRendererBuilderOption {
	return func(lr *lineRenderer) {
		if wgsl != "" {
			lr.sources.WGSLPath = wgsl
		}
		if vertex != "" {
			lr.sources.VertexPath = vertex
		}
		if fragment != "" {
			lr.sources.FragmentPath = fragment
		}
	}
}

// WithEnabled sets whether PushLine collects segments right after construction.
//
// Parameters:
//   - enabled: the initial enabled flag, true by default
//
// Returns:
//   - LineRendererBuilderOption: a function that applies the flag to a line renderer
func WithEnabled(enabled bool) LineRendererBuilderOption {
	return func(lr *lineRenderer) {
		lr.enabled = enabled
	}
}

// WithLabel names the program and buffer in logs and GPU debug labels.
//
// Parameters:
//   - label: the label, "lines" by default
//
// Returns:
//   - LineRendererBuilderOption: a function that applies the label to a line renderer
func WithLabel(label string) LineRendererBuilderOption {
	return func(lr *lineRenderer) {
		if label != "" {
			lr.label = label
		}
	}
}

// WithOverlay draws the lines on top of everything else, ignoring and not writing depth.
//
// Parameters:
//   - overlay: if true, the program skips the depth test and depth writes
//
// Returns:
//   - LineRendererBuilderOption: a function that applies the overlay flag to a line renderer
func WithOverlay(overlay bool) LineRendererBuilderOption {
	return func(lr *lineRenderer) {
		lr.sources.Overlay = overlay
	}
}

// WithAlpha sets the opacity the lines are drawn with. Values below 1 enable alpha blending.
//
// Parameters:
//   - alpha: the opacity, clamped to [0, 1], 1 by default
//
// Returns:
//   - LineRendererBuilderOption: a function that applies the opacity to a line renderer
func WithAlpha(alpha float32) LineRendererBuilderOption {
	return func(lr *lineRenderer) {
		lr.alpha = common.Clamp(alpha, 0, 1)
	}
}
