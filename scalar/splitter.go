package scalar

import "math"

// ConvectiveSpeed is the face-normal convective velocity
// q = sum_d 0.5*(u_i[d] + u_j[d]) * N[d], where under a dynamic grid u is the
// flow velocity relative to the grid velocity of its side. A zero length
// normal gives q = 0.
func ConvectiveSpeed(normal, vel_i, vel_j, gridVel_i, gridVel_j []float64, dynamicGrid bool) (q float64) {
	if dynamicGrid {
		for iDim, n := range normal {
			velocity_i := vel_i[iDim] - gridVel_i[iDim]
			velocity_j := vel_j[iDim] - gridVel_j[iDim]
			q += 0.5 * (velocity_i + velocity_j) * n
		}
		return
	}
	for iDim, n := range normal {
		q += 0.5 * (vel_i[iDim] + vel_j[iDim]) * n
	}
	return
}

// UpwindSplit returns a0 = max(q,0) and a1 = min(q,0), so a0+a1 == q.
func UpwindSplit(q float64) (a0, a1 float64) {
	a0, a1 = math.Max(q, 0), math.Min(q, 0)
	return
}
