package d3

import "gonum.org/v1/gonum/spatial/r3"

// Triangle is a 3d triangle with counter-clockwise vertex order.
type Triangle [3]r3.Vec

// Normal returns the unit normal of t, the zero vector if t is degenerate.
func (t Triangle) Normal() r3.Vec {
	return Unit(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])))
}

// Area returns the area of t.
func (t Triangle) Area() float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])))
}

// Centroid returns the mean of t's vertices.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1./3, r3.Add(t[0], r3.Add(t[1], t[2])))
}

// Closest returns closest point on the triangle to argument point p.
// Voronoi regions of the vertices and edges are tested before the
// interior, so degenerate triangles still yield a point on them.
func (t Triangle) Closest(p r3.Vec) r3.Vec {
	a, b, c := t[0], t[1], t[2]
	ab, ac, ap := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(p, a)
	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}
	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return r3.Add(b, r3.Scale((d4-d3)/((d4-d3)+(d5-d6)), r3.Sub(c, b)))
	}
	denom := va + vb + vc
	if denom == 0 {
		return a
	}
	v, w := vb/denom, vc/denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
