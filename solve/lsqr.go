package solve

import (
	"context"
	"math"

	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
)

const eps = 2.220446049250313e-16

// LSQRSettings configures LSQR. Zero values select the defaults: ATol and
// BTol 1e-8, ConLim 1e8, MaxIter 2n.
type LSQRSettings struct {
	Damp    float64
	ATol    float64
	BTol    float64
	ConLim  float64
	MaxIter int
}

func (s LSQRSettings) withDefaults(n int) LSQRSettings {
	if s.ATol == 0 {
		s.ATol = 1e-8
	}
	if s.BTol == 0 {
		s.BTol = 1e-8
	}
	if s.ConLim == 0 {
		s.ConLim = 1e8
	}
	if s.MaxIter <= 0 {
		s.MaxIter = 2 * n
	}
	return s
}

// LSQR minimizes ||b - A x||² + damp²||x||² with the Paige and Saunders
// bidiagonalization. Only A's action and its adjoint are used.
func LSQR(ctx context.Context, op operator.LinearOperator, b []float64, settings LSQRSettings) (*Result, error) {
	m, n, err := checkOperator(op, b)
	if err != nil {
		return nil, err
	}
	s := settings.withDefaults(n)

	var (
		x      = make([]float64, n)
		u      = make([]float64, m)
		v      = make([]float64, n)
		w      = make([]float64, n)
		tmpM   = make([]float64, m)
		tmpN   = make([]float64, n)
		dampsq = s.Damp * s.Damp
		ctol   float64
	)
	if s.ConLim > 0 {
		ctol = 1 / s.ConLim
	}

	// Initialize the bidiagonalization
	copy(u, b)
	bnorm := floats.Norm(u, 2)
	beta := bnorm
	var alfa float64
	if beta > 0 {
		floats.Scale(1/beta, u)
		op.ApplyAdjoint(v, u)
		alfa = floats.Norm(v, 2)
	}
	if alfa > 0 {
		floats.Scale(1/alfa, v)
	}
	copy(w, v)

	res := &Result{X: x, Stop: StopExact, ResidualNorm: beta}
	if alfa*beta == 0 {
		return res, nil
	}

	var (
		rhobar = alfa
		phibar = beta
		anorm  float64
		acond  float64
		ddnorm float64
		res2   float64
		xxnorm float64
		xnorm  float64
		z      float64
		cs2    = -1.
		sn2    = 0.
		r1norm = beta
	)

	for itn := 1; ; itn++ {
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			res.Iterations = itn - 1
			break
		}

		// u = A v - alfa u
		op.Apply(tmpM, v)
		floats.AddScaledTo(u, tmpM, -alfa, u)
		beta = floats.Norm(u, 2)
		if beta > 0 {
			floats.Scale(1/beta, u)
			anorm = math.Sqrt(anorm*anorm + alfa*alfa + beta*beta + dampsq)
			// v = A^T u - beta v
			op.ApplyAdjoint(tmpN, u)
			floats.AddScaledTo(v, tmpN, -beta, v)
			alfa = floats.Norm(v, 2)
			if alfa > 0 {
				floats.Scale(1/alfa, v)
			}
		}

		// Eliminate the damping parameter
		rhobar1 := rhobar
		var psi float64
		if s.Damp > 0 {
			rhobar1 = math.Sqrt(rhobar*rhobar + dampsq)
			cs1 := rhobar / rhobar1
			sn1 := s.Damp / rhobar1
			psi = sn1 * phibar
			phibar = cs1 * phibar
		}

		// Plane rotation eliminating the subdiagonal of the bidiagonal
		cs, sn, rho := symOrtho(rhobar1, beta)
		theta := sn * alfa
		rhobar = -cs * alfa
		phi := cs * phibar
		phibar = sn * phibar
		tau := sn * phi

		// Update x and w
		t1 := phi / rho
		t2 := -theta / rho
		ddnorm += floats.Dot(w, w) / (rho * rho)
		floats.AddScaled(x, t1, w)
		floats.AddScaledTo(w, v, t2, w)

		// Estimate the norm of x
		delta := sn2 * rho
		gambar := -cs2 * rho
		rhs := phi - delta*z
		zbar := rhs / gambar
		xnorm = math.Sqrt(xxnorm + zbar*zbar)
		gamma := math.Hypot(gambar, theta)
		cs2 = gambar / gamma
		sn2 = theta / gamma
		z = rhs / gamma
		xxnorm += z * z

		acond = anorm * math.Sqrt(ddnorm)
		res2 += psi * psi
		rnorm := math.Sqrt(phibar*phibar + res2)
		arnorm := alfa * math.Abs(tau)
		r1sq := rnorm*rnorm - dampsq*xxnorm
		r1norm = math.Sqrt(math.Abs(r1sq))
		if r1sq < 0 {
			r1norm = -r1norm
		}

		test1 := rnorm / bnorm
		test2 := arnorm / (anorm*rnorm + eps)
		test3 := 1 / (acond + eps)
		t1 = test1 / (1 + anorm*xnorm/bnorm)
		rtol := s.BTol + s.ATol*anorm*xnorm/bnorm

		stop, done := StopMaxIter, true
		switch {
		case test1 <= rtol, 1+t1 <= 1:
			stop = StopConverged
		case test2 <= s.ATol, 1+test2 <= 1:
			stop = StopLeastSquares
		case test3 <= ctol, 1+test3 <= 1:
			stop = StopConditionLimit
		case itn >= s.MaxIter:
		default:
			done = false
		}
		if done {
			res.Stop = stop
			res.Iterations = itn
			break
		}
	}

	res.ResidualNorm = math.Abs(r1norm)
	res.SolutionNorm = floats.Norm(x, 2)
	return res, nil
}

// symOrtho returns a stable Givens rotation (c, s, r) with
// [c s; -s c] [a; b] = [r; 0].
func symOrtho(a, b float64) (c, s, r float64) {
	switch {
	case b == 0:
		return sign(a), 0, math.Abs(a)
	case a == 0:
		return 0, sign(b), math.Abs(b)
	case math.Abs(b) > math.Abs(a):
		tau := a / b
		s = sign(b) / math.Sqrt(1+tau*tau)
		c = s * tau
		r = b / s
	default:
		tau := b / a
		c = sign(a) / math.Sqrt(1+tau*tau)
		s = c * tau
		r = a / c
	}
	return c, s, r
}

func sign(a float64) float64 {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}
