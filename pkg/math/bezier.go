package math

// bezierTolerance is the squared second-difference bound below which a
// control polygon is considered flat.
const bezierTolerance = 0.25

// Bezier tessellates a Bézier curve of any degree into a polyline using the
// adaptive de Casteljau subdivision of osu!stable. The output always ends
// with the last control point.
func Bezier(points []Vector2) []Vector2 {
	n := len(points)
	if n == 0 {
		return nil
	}
	last := points[n-1]

	var output []Vector2
	stack := [][]Vector2{append([]Vector2(nil), points...)}
	var free [][]Vector2
	scratch := make([]Vector2, n)
	left := make([]Vector2, 2*n-1)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if bezierFlatEnough(cur) {
			output = bezierApproximate(cur, output, left, scratch)
			free = append(free, cur)
			continue
		}

		var right []Vector2
		if k := len(free); k > 0 {
			right = free[k-1]
			free = free[:k-1]
		} else {
			right = make([]Vector2, n)
		}
		bezierSubdivide(cur, left, right, scratch)
		copy(cur, left[:n])

		// left half on top so it is emitted first
		stack = append(stack, right, cur)
	}

	return append(output, last)
}

func bezierFlatEnough(points []Vector2) bool {
	for i := 1; i < len(points)-1; i++ {
		d := points[i-1].Sub(points[i].Scale(2)).Add(points[i+1])
		if d.LengthSquared() > bezierTolerance {
			return false
		}
	}
	return true
}

// bezierSubdivide splits points at t = 0.5 into l and r (r may be nil).
func bezierSubdivide(points, l, r, scratch []Vector2) {
	n := len(points)
	copy(scratch, points)
	for j := 0; j < n; j++ {
		l[j] = scratch[0]
		if r != nil {
			r[n-j-1] = scratch[n-j-1]
		}
		for k := 0; k < n-j-1; k++ {
			scratch[k] = scratch[k].Add(scratch[k+1]).Div(2)
		}
	}
}

func bezierApproximate(points, output, l, scratch []Vector2) []Vector2 {
	n := len(points)
	bezierSubdivide(points, l, nil, scratch)
	for i := 0; i < n-1; i++ {
		l[n+i] = scratch[i+1]
	}

	output = append(output, points[0])
	for j := 1; j < n-1; j++ {
		idx := j * 2
		p := l[idx-1].Add(l[idx].Scale(2)).Add(l[idx+1]).Scale(0.25)
		output = append(output, p)
	}
	return output
}
