// Package parallel splits row ranges across goroutines.
package parallel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

// DefaultThreshold is the row count below which the encoders stay sequential.
const DefaultThreshold = 4096

// chunks returns the [start, end) ranges for items split over the available CPUs.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	out := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// ParallelizeErr runs fn over [0, items) in a single call when items does not
// exceed threshold. Otherwise it splits the range by the number of CPU cores
// and runs each part in its own goroutine. The first error is returned after
// all ranges have finished. A panic in a worker comes back as a
// *errors.PanicError naming the row range.
func ParallelizeErr(items int, threshold int, fn func(start, end int) error) error {
	if items <= threshold {
		return fn(0, items)
	}

	var g errgroup.Group
	for _, c := range chunks(items) {
		s, e := c[0], c[1]
		g.Go(func() error {
			return errors.SafeExecute(fmt.Sprintf("rows [%d, %d)", s, e), func() error {
				return fn(s, e)
			})
		})
	}
	return g.Wait()
}
