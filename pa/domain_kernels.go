package pa

// scratch holds the per-element work arrays of the sum factorization. Each
// array is large enough for max(D1D, Q1D)^dim values.
type scratch struct {
	val, gx, gy, gz []float64
	t0, t1, t2      []float64
}

func newScratch(dim, d1d, q1d int) *scratch {
	n := max(d1d, q1d)
	size := n
	for i := 1; i < dim; i++ {
		size *= n
	}
	buf := make([]float64, 7*size)
	return &scratch{
		val: buf[0*size : 1*size],
		gx:  buf[1*size : 2*size],
		gy:  buf[2*size : 3*size],
		gz:  buf[3*size : 4*size],
		t0:  buf[4*size : 5*size],
		t1:  buf[5*size : 6*size],
		t2:  buf[6*size : 7*size],
	}
}

// pointwise applies D at quadrature point q of element e. On entry val and
// g hold the interpolated value and reference gradient; on exit they hold the
// quantities tested against the basis values and gradients.
func (o *DomainOperator) pointwise(e, q int, val *float64, g []*float64) {
	d := o.D.Data()[o.comps*(q+o.nq*e):]
	dim := o.dim
	switch o.op {
	case BtDB:
		*val *= d[0]
		for i := 0; i < dim; i++ {
			*g[i] = 0
		}
	case GtDG:
		var in [3]float64
		for j := 0; j < dim; j++ {
			in[j] = *g[j]
		}
		for i := 0; i < dim; i++ {
			var s float64
			for j := 0; j < dim; j++ {
				s += d[i+dim*j] * in[j]
			}
			*g[i] = s
		}
		*val = 0
	case BtDG:
		var s float64
		for j := 0; j < dim; j++ {
			s += d[j] * *g[j]
			*g[j] = 0
		}
		*val = s
	}
}

func (o *DomainOperator) mult1D(e int, u, y []float64, s *scratch) {
	D, Q := o.tables.Dofs1D, o.tables.Quads1D
	B, G := o.tables.B, o.tables.G
	for q := 0; q < Q; q++ {
		var v, g float64
		for d := 0; d < D; d++ {
			v += B[d+D*q] * u[d]
			g += G[d+D*q] * u[d]
		}
		o.pointwise(e, q, &v, []*float64{&g})
		s.val[q], s.gx[q] = v, g
	}
	for d := 0; d < D; d++ {
		var sum float64
		for q := 0; q < Q; q++ {
			sum += B[d+D*q]*s.val[q] + G[d+D*q]*s.gx[q]
		}
		y[d] += sum
	}
}

func (o *DomainOperator) mult2D(e int, u, y []float64, s *scratch) {
	D, Q := o.tables.Dofs1D, o.tables.Quads1D
	B, G := o.tables.B, o.tables.G
	bu, gu := s.t0, s.t1

	// contract x
	for dy := 0; dy < D; dy++ {
		for qx := 0; qx < Q; qx++ {
			var b, g float64
			for dx := 0; dx < D; dx++ {
				b += B[dx+D*qx] * u[dx+D*dy]
				g += G[dx+D*qx] * u[dx+D*dy]
			}
			bu[qx+Q*dy], gu[qx+Q*dy] = b, g
		}
	}
	// contract y
	for qy := 0; qy < Q; qy++ {
		for qx := 0; qx < Q; qx++ {
			var v, gx, gy float64
			for dy := 0; dy < D; dy++ {
				v += B[dy+D*qy] * bu[qx+Q*dy]
				gx += B[dy+D*qy] * gu[qx+Q*dy]
				gy += G[dy+D*qy] * bu[qx+Q*dy]
			}
			q := qx + Q*qy
			o.pointwise(e, q, &v, []*float64{&gx, &gy})
			s.val[q], s.gx[q], s.gy[q] = v, gx, gy
		}
	}
	// transpose y
	for dy := 0; dy < D; dy++ {
		for qx := 0; qx < Q; qx++ {
			var a, b float64
			for qy := 0; qy < Q; qy++ {
				q := qx + Q*qy
				a += B[dy+D*qy]*s.val[q] + G[dy+D*qy]*s.gy[q]
				b += B[dy+D*qy] * s.gx[q]
			}
			bu[qx+Q*dy], gu[qx+Q*dy] = a, b
		}
	}
	// transpose x
	for dy := 0; dy < D; dy++ {
		for dx := 0; dx < D; dx++ {
			var sum float64
			for qx := 0; qx < Q; qx++ {
				sum += B[dx+D*qx]*bu[qx+Q*dy] + G[dx+D*qx]*gu[qx+Q*dy]
			}
			y[dx+D*dy] += sum
		}
	}
}

func (o *DomainOperator) mult3D(e int, u, y []float64, s *scratch) {
	D, Q := o.tables.Dofs1D, o.tables.Quads1D
	B, G := o.tables.B, o.tables.G
	n := max(D, Q)
	// staging arrays indexed (first, second, third) with stride n
	at := func(i, j, k int) int { return i + n*(j+n*k) }
	bx, gxs := s.t0, s.t1

	// contract x: (qx, dy, dz)
	for dz := 0; dz < D; dz++ {
		for dy := 0; dy < D; dy++ {
			for qx := 0; qx < Q; qx++ {
				var b, g float64
				for dx := 0; dx < D; dx++ {
					w := u[dx+D*(dy+D*dz)]
					b += B[dx+D*qx] * w
					g += G[dx+D*qx] * w
				}
				bx[at(qx, dy, dz)], gxs[at(qx, dy, dz)] = b, g
			}
		}
	}
	// contract y: (qx, qy, dz), kept in val, gx, gy for the z pass
	bb, gb, bg := s.val, s.gx, s.gy
	for dz := 0; dz < D; dz++ {
		for qy := 0; qy < Q; qy++ {
			for qx := 0; qx < Q; qx++ {
				var v1, v2, v3 float64
				for dy := 0; dy < D; dy++ {
					v1 += B[dy+D*qy] * bx[at(qx, dy, dz)]
					v2 += B[dy+D*qy] * gxs[at(qx, dy, dz)]
					v3 += G[dy+D*qy] * bx[at(qx, dy, dz)]
				}
				bb[at(qx, qy, dz)], gb[at(qx, qy, dz)], bg[at(qx, qy, dz)] = v1, v2, v3
			}
		}
	}
	// contract z and apply D, results in t0..t2 and gz indexed by q
	qv, qgx, qgy, qgz := s.t0, s.t1, s.t2, s.gz
	for qz := 0; qz < Q; qz++ {
		for qy := 0; qy < Q; qy++ {
			for qx := 0; qx < Q; qx++ {
				var v, gx, gy, gz float64
				for dz := 0; dz < D; dz++ {
					bz, gzt := B[dz+D*qz], G[dz+D*qz]
					v += bz * bb[at(qx, qy, dz)]
					gx += bz * gb[at(qx, qy, dz)]
					gy += bz * bg[at(qx, qy, dz)]
					gz += gzt * bb[at(qx, qy, dz)]
				}
				q := qx + Q*(qy+Q*qz)
				o.pointwise(e, q, &v, []*float64{&gx, &gy, &gz})
				qv[q], qgx[q], qgy[q], qgz[q] = v, gx, gy, gz
			}
		}
	}
	// transpose z: (qx, qy, dz)
	tb, tgb, tbg := s.val, s.gx, s.gy
	for dz := 0; dz < D; dz++ {
		for qy := 0; qy < Q; qy++ {
			for qx := 0; qx < Q; qx++ {
				var v1, v2, v3 float64
				for qz := 0; qz < Q; qz++ {
					q := qx + Q*(qy+Q*qz)
					bz, gzt := B[dz+D*qz], G[dz+D*qz]
					v1 += bz*qv[q] + gzt*qgz[q]
					v2 += bz * qgx[q]
					v3 += bz * qgy[q]
				}
				tb[at(qx, qy, dz)], tgb[at(qx, qy, dz)], tbg[at(qx, qy, dz)] = v1, v2, v3
			}
		}
	}
	// transpose y: (qx, dy, dz)
	sb, sg := s.t0, s.t1
	for dz := 0; dz < D; dz++ {
		for dy := 0; dy < D; dy++ {
			for qx := 0; qx < Q; qx++ {
				var v1, v2 float64
				for qy := 0; qy < Q; qy++ {
					by, gy := B[dy+D*qy], G[dy+D*qy]
					v1 += by*tb[at(qx, qy, dz)] + gy*tbg[at(qx, qy, dz)]
					v2 += by * tgb[at(qx, qy, dz)]
				}
				sb[at(qx, dy, dz)], sg[at(qx, dy, dz)] = v1, v2
			}
		}
	}
	// transpose x
	for dz := 0; dz < D; dz++ {
		for dy := 0; dy < D; dy++ {
			for dx := 0; dx < D; dx++ {
				var sum float64
				for qx := 0; qx < Q; qx++ {
					sum += B[dx+D*qx]*sb[at(qx, dy, dz)] + G[dx+D*qx]*sg[at(qx, dy, dz)]
				}
				y[dx+D*(dy+D*dz)] += sum
			}
		}
	}
}
