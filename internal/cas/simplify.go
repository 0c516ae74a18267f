package cas

// Simplify applies trigonometric and exp/log identities, cancels rational
// expressions and returns the smallest of the expanded, cancelled and
// factored forms.
func Simplify(e Expr) Expr {
	e = Transform(e, simplifyNode)

	best := e
	consider := func(c Expr) {
		if Size(c) < Size(best) {
			best = c
		}
	}
	expanded := Transform(Expand(e), simplifyNode)
	consider(expanded)
	if len(FreeSymbols(e)) > 0 {
		cancelled := Cancel(e)
		consider(cancelled)
		consider(Factor(e))
		consider(Factor(cancelled))
	}
	return best
}

func simplifyNode(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		return pythagorean(v)
	case *Func:
		if v.Name == "ln" && len(v.Args) == 1 {
			return expandLog(v.Args[0])
		}
	}
	return e
}

// pythagorean replaces pairs c*r*sin(u)^2 + c*r*cos(u)^2 with c*r.
func pythagorean(a *Add) Expr {
	type trig struct {
		idx  int
		key  string
		rest Expr
	}
	var sins, coss []trig
	for i, t := range a.Terms {
		name, arg, rest, ok := squaredTrig(t)
		if !ok {
			continue
		}
		k := trig{idx: i, key: arg.String() + "|" + rest.String(), rest: rest}
		if name == "sin" {
			sins = append(sins, k)
		} else {
			coss = append(coss, k)
		}
	}
	if len(sins) == 0 || len(coss) == 0 {
		return a
	}

	used := map[int]bool{}
	var extra []Expr
	for _, s := range sins {
		for _, c := range coss {
			if used[c.idx] || s.key != c.key {
				continue
			}
			used[s.idx], used[c.idx] = true, true
			extra = append(extra, s.rest)
			break
		}
	}
	if len(extra) == 0 {
		return a
	}
	var out []Expr
	for i, t := range a.Terms {
		if !used[i] {
			out = append(out, t)
		}
	}
	return Sum(append(out, extra...)...)
}

// squaredTrig matches rest * f(u)^2 for f in sin, cos.
func squaredTrig(t Expr) (string, Expr, Expr, bool) {
	factors := []Expr{t}
	if m, ok := t.(*Mul); ok {
		factors = m.Factors
	}
	for i, f := range factors {
		p, ok := f.(*Pow)
		if !ok || !isNum(p.Exp, 2) {
			continue
		}
		fn, ok := p.Base.(*Func)
		if !ok || (fn.Name != "sin" && fn.Name != "cos") {
			continue
		}
		rest := make([]Expr, 0, len(factors)-1)
		rest = append(rest, factors[:i]...)
		rest = append(rest, factors[i+1:]...)
		return fn.Name, fn.Args[0], Product(rest...), true
	}
	return "", nil, nil, false
}

// expandLog splits exponential factors out of a logarithm:
// ln(exp(k)*y) = k + ln(y).
func expandLog(arg Expr) Expr {
	m, ok := arg.(*Mul)
	if !ok {
		return Call("ln", arg)
	}
	var rest []Expr
	var extra []Expr
	for _, f := range m.Factors {
		if fn, ok := f.(*Func); ok && fn.Name == "exp" {
			extra = append(extra, fn.Args[0])
			continue
		}
		if f == E {
			extra = append(extra, Int(1))
			continue
		}
		rest = append(rest, f)
	}
	if len(extra) == 0 {
		return Call("ln", arg)
	}
	return Sum(append(extra, Call("ln", Product(rest...)))...)
}
