package handler

import (
	"github.com/wsgo/server/internal/world"
)

// AutosaveAll snapshots every online player into the save queue. Snapshots
// are taken on each zone's actor goroutine so they are internally
// consistent.
func AutosaveAll(supervisor *world.Supervisor, deps *Deps) {
	supervisor.ForEach(func(z *world.ZoneInstance) {
		z.Post(func(z *world.ZoneInstance) {
			for _, p := range z.Players {
				saveEntity(z, p, deps)
			}
		})
	})
}
