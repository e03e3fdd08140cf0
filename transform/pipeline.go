package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/arbor/morph"
)

// Pipeline is an ordered list of coordinate functions. Each step consumes
// the full output of the previous one; steps are never interleaved.
type Pipeline []CoordFunc

// Func folds the pipeline into a single CoordFunc.
func (p Pipeline) Func() CoordFunc {
	steps := append(Pipeline(nil), p...)
	return func(c *mat.Dense) (*mat.Dense, error) {
		rows, _ := c.Dims()
		for i, step := range steps {
			out, err := step(c)
			if err != nil {
				return nil, fmt.Errorf("pipeline step %d: %w", i, err)
			}
			if out == nil {
				return nil, &morph.GeometryError{Op: "pipeline", Reason: fmt.Sprintf("step %d returned no coordinates", i)}
			}
			if r, cols := out.Dims(); r != rows || cols != 3 {
				return nil, &morph.GeometryError{
					Op:     "pipeline",
					Reason: fmt.Sprintf("step %d returned %d×%d coordinates, want %d×3", i, r, cols, rows),
				}
			}
			c = out
		}
		return c, nil
	}
}

// Run applies every step to m in place and returns m. If any step fails m
// is left unchanged.
func (p Pipeline) Run(m *morph.Morphology) (*morph.Morphology, error) {
	return Apply(m, p.Func())
}

// Applied is the pure form of Run.
func (p Pipeline) Applied(m *morph.Morphology) (*morph.Morphology, error) {
	return Applied(m, p.Func())
}
