package main

import (
	"sort"

	"github.com/richardwooding/avrsim/internal/pin"
)

// duty returns the fraction of the cycles in (from, to] during which the pin
// was high.
func duty(p *pin.Pin, from, to uint64) float64 {
	if to <= from {
		return 0
	}

	ts := p.Transitions()
	i := sort.Search(len(ts), func(i int) bool { return ts[i].Cycle > from })

	level := p.LevelAt(from)
	last := from
	var high uint64
	for ; i < len(ts) && ts[i].Cycle <= to; i++ {
		// a transition at cycle c is the level at the end of cycle c
		if level {
			high += ts[i].Cycle - 1 - last
		}
		last = ts[i].Cycle - 1
		level = ts[i].Level
	}
	if level {
		high += to - last
	}
	return float64(high) / float64(to-from)
}

// render resamples the pin over (start, end] into samples covering
// perSample cycles each. Samples are the duty cycle scaled to -1..1.
func render(p *pin.Pin, start, end uint64, perSample float64) []float32 {
	if perSample <= 0 || end <= start {
		return nil
	}
	n := int(float64(end-start) / perSample)
	out := make([]float32, n)
	for i := range out {
		from := start + uint64(float64(i)*perSample)
		to := start + uint64(float64(i+1)*perSample)
		out[i] = float32(duty(p, from, to)*2 - 1)
	}
	return out
}
