package world

// SpatialGrid is a uniform-cell 3-D index over one zone's entities.
// Cell size should exceed the common query radius (aggro ~15-30 units) so
// range queries touch few cells. Accessed only from the zone actor, no
// locks.
type SpatialGrid struct {
	cellSize  float32
	cells     map[gridKey]map[uint64]struct{}
	positions map[uint64]Vec3
}

type gridKey struct {
	ix, iy, iz int32
}

func NewSpatialGrid(cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 50
	}
	return &SpatialGrid{
		cellSize:  cellSize,
		cells:     make(map[gridKey]map[uint64]struct{}),
		positions: make(map[uint64]Vec3),
	}
}

func coord(v, size float32) int32 {
	q := v / size
	if q < 0 && float32(int32(q)) != q {
		return int32(q) - 1
	}
	return int32(q)
}

func (g *SpatialGrid) keyOf(p Vec3) gridKey {
	return gridKey{
		ix: coord(p.X, g.cellSize),
		iy: coord(p.Y, g.cellSize),
		iz: coord(p.Z, g.cellSize),
	}
}

// Insert places a guid at pos. Inserting an existing guid moves it.
func (g *SpatialGrid) Insert(guid uint64, pos Vec3) {
	if _, ok := g.positions[guid]; ok {
		g.Remove(guid)
	}
	k := g.keyOf(pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[uint64]struct{})
		g.cells[k] = cell
	}
	cell[guid] = struct{}{}
	g.positions[guid] = pos
}

// Remove takes a guid out of the grid. No-op if absent.
func (g *SpatialGrid) Remove(guid uint64) {
	pos, ok := g.positions[guid]
	if !ok {
		return
	}
	k := g.keyOf(pos)
	if cell := g.cells[k]; cell != nil {
		delete(cell, guid)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
	delete(g.positions, guid)
}

// Update moves a guid to a new position. O(1) average; cheap when the cell
// does not change.
func (g *SpatialGrid) Update(guid uint64, pos Vec3) {
	old, ok := g.positions[guid]
	if !ok {
		g.Insert(guid, pos)
		return
	}
	oldK := g.keyOf(old)
	newK := g.keyOf(pos)
	if oldK == newK {
		g.positions[guid] = pos
		return
	}
	g.Remove(guid)
	g.Insert(guid, pos)
}

// Position returns the cached position for a guid.
func (g *SpatialGrid) Position(guid uint64) (Vec3, bool) {
	p, ok := g.positions[guid]
	return p, ok
}

// Len returns the number of indexed entities.
func (g *SpatialGrid) Len() int {
	return len(g.positions)
}

// EntitiesInRange returns every guid within radius of center (inclusive).
// Walks the AABB of candidate cells, then filters by squared distance.
func (g *SpatialGrid) EntitiesInRange(center Vec3, radius float32) []uint64 {
	if radius < 0 {
		return nil
	}
	min := g.keyOf(Vec3{center.X - radius, center.Y - radius, center.Z - radius})
	max := g.keyOf(Vec3{center.X + radius, center.Y + radius, center.Z + radius})
	r2 := radius * radius

	var result []uint64
	for ix := min.ix; ix <= max.ix; ix++ {
		for iy := min.iy; iy <= max.iy; iy++ {
			for iz := min.iz; iz <= max.iz; iz++ {
				cell := g.cells[gridKey{ix, iy, iz}]
				for guid := range cell {
					if g.positions[guid].DistSq(center) <= r2 {
						result = append(result, guid)
					}
				}
			}
		}
	}
	return result
}
