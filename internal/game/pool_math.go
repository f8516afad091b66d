package game

// closestPointOnSegment returns the point of segment p1→p2 nearest to c and the
// segment parameter t in [0, 1] at which it lies.
func closestPointOnSegment(p1, p2, c Vec2) (Vec2, float64) {
	d := p2.Minus(p1)
	lenSq := d.MagnitudeSquared()
	if lenSq == 0 {
		return p1, 0
	}
	t := c.Minus(p1).Dot(d) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p1.Plus(d.Times(t)), t
}

// distanceToSegment returns the Euclidean distance from c to segment p1→p2.
func distanceToSegment(p1, p2, c Vec2) float64 {
	closest, _ := closestPointOnSegment(p1, p2, c)
	return c.Distance(closest)
}

// segmentTouchesCircle reports whether the path p1→p2 comes within radius of center.
// A zero-length path degenerates to a plain point-in-circle test.
func segmentTouchesCircle(p1, p2, center Vec2, radius float64) bool {
	return distanceToSegment(p1, p2, center) <= radius
}

// checkObjectsConverging returns true if two objects are moving toward each other
// along the line joining them.
func checkObjectsConverging(posA, posB Vec2, velA, velB Vec2) bool {
	relVel := velB.Minus(velA)
	direction := posB.Minus(posA)
	return relVel.Dot(direction) < 0
}

// rayToRectangle returns the distance from the origin along unit direction dir to
// the boundary of the origin-centered rectangle with the given half extents.
func rayToRectangle(dir Vec2, halfLength, halfWidth float64) float64 {
	best := -1.0
	if dir.X != 0 {
		t := halfLength / abs(dir.X)
		best = t
	}
	if dir.Y != 0 {
		t := halfWidth / abs(dir.Y)
		if best < 0 || t < best {
			best = t
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
