package sholl

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

type options struct {
	workers int
}

// Option configures Frequency.
type Option func(*options)

// WithWorkers computes up to n members concurrently. Values below 2 keep
// the computation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Frequency returns the summed crossing counts of every member of pop.
//
// When bins is nil they are derived with DeriveBins(pop, nf, step); if no
// member has an admitted section the result is empty and the error nil.
// Explicit bins are used as given and step is ignored. Every member needs
// a soma centre. The first member error is returned.
func Frequency(pop morph.Population, nf traversal.NeuriteFilter, step float64, bins []float64, opts ...Option) ([]int, error) {
	if bins == nil {
		derived, err := DeriveBins(pop, nf, step)
		if err != nil {
			return nil, err
		}
		if len(derived) == 0 {
			return []int{}, nil
		}
		bins = derived
	}

	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	perMember := make([][]int, len(pop))
	if o.workers < 2 {
		for i, m := range pop {
			counts, err := SomaCrossings(m, nf, bins)
			if err != nil {
				return nil, err
			}
			perMember[i] = counts
		}
	} else if err := fanOut(pop, nf, bins, o.workers, perMember); err != nil {
		return nil, err
	}

	total := make([]int, len(bins))
	for _, counts := range perMember {
		for i, c := range counts {
			total[i] += c
		}
	}
	return total, nil
}

// fanOut computes each member on a bounded errgroup. Each goroutine writes
// only its own slot of out.
func fanOut(pop morph.Population, nf traversal.NeuriteFilter, bins []float64, workers int, out [][]int) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, m := range pop {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			counts, err := SomaCrossings(m, nf, bins)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			out[i] = counts
			monitoring.Debugf("sholl: member %d (%s) done", i, m.Name)
			return nil
		})
	}
	return g.Wait()
}

// FrequencyProfile is Frequency returning the bins alongside the counts.
func FrequencyProfile(pop morph.Population, nf traversal.NeuriteFilter, step float64, bins []float64, opts ...Option) (Profile, error) {
	if bins == nil {
		derived, err := DeriveBins(pop, nf, step)
		if err != nil {
			return Profile{}, err
		}
		if len(derived) == 0 {
			return Profile{Radii: []float64{}, Counts: []int{}}, nil
		}
		bins = derived
	}
	counts, err := Frequency(pop, nf, step, bins, opts...)
	if err != nil {
		return Profile{}, err
	}
	return NewProfile(bins, counts)
}
