package pathway

import (
	"context"
	"errors"
)

// Use runs fn with p and then closes p exactly once if it implements Closer,
// whether fn returns normally, returns an error or panics. A close error is
// joined with fn's error. A panic is re-raised after the close.
func Use(ctx context.Context, p Pathway, fn func(Pathway) error) (err error) {
	closer, ok := p.(Closer)
	if !ok {
		return fn(p)
	}

	defer func() {
		closeErr := closer.Close(context.WithoutCancel(ctx))
		if r := recover(); r != nil {
			panic(r)
		}
		err = errors.Join(err, closeErr)
	}()

	return fn(p)
}
