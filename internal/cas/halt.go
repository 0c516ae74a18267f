package cas

import "context"

// halt lets long-running loops observe a context. A nil *halt never stops.
type halt struct {
	ctx context.Context
}

type aborted struct {
	err error
}

func newHalt(ctx context.Context) *halt {
	return &halt{ctx: ctx}
}

// check unwinds the computation once the context is done.
func (h *halt) check() {
	if h == nil {
		return
	}
	if err := h.ctx.Err(); err != nil {
		panic(aborted{err: err})
	}
}

// recover must be deferred. It turns an unwind started by check into *err
// and lets any other panic continue.
func (h *halt) recover(err *error) {
	if r := recover(); r != nil {
		a, ok := r.(aborted)
		if !ok {
			panic(r)
		}
		*err = a.err
	}
}
