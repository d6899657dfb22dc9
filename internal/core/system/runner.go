package system

import (
	"sort"
	"time"

	"github.com/wsgo/server/internal/world"
)

// Runner executes systems in phase order each tick. One Runner is shared by
// every zone: the systems themselves are stateless, all state lives in the
// zone they are handed.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(z *world.ZoneInstance, now time.Time) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(z, now)
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.Slice(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
