package files

import (
	"context"

	"github.com/fruitsalade/putio/pkg/client"
	"github.com/fruitsalade/putio/pkg/models"
)

// Future is the pending result of an operation started with Go.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// Go runs fn on its own goroutine. Cancel or a done ctx aborts the request.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer cancel()
		v, err := fn(ctx)
		f.val, f.err = v, err
		close(f.done)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancel aborts the underlying request. The result becomes the
// cancellation error unless it was already delivered.
func (f *Future[T]) Cancel() {
	f.cancel()
}

// Wait blocks until the result is ready or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// The *Func methods deliver results through a callback, invoked exactly
// once on a separate goroutine. Every failure collapses to false, an empty
// slice or 0.

// RenameFunc renames id and reports success to fn.
func (s *Service) RenameFunc(ctx context.Context, id int64, name string, fn func(bool)) *Future[bool] {
	return deliver(ctx, fn, func(ctx context.Context) (bool, error) {
		err := s.Rename(ctx, id, name)
		return client.OK(err), err
	})
}

// ProgressFunc reports the resume position of id to fn.
func (s *Service) ProgressFunc(ctx context.Context, id int64, fn func(int)) *Future[int] {
	return deliver(ctx, fn, func(ctx context.Context) (int, error) {
		return s.Progress(ctx, id)
	})
}

// ListFunc reports the children of parentID to fn.
func (s *Service) ListFunc(ctx context.Context, parentID int64, fn func([]*models.File)) *Future[[]*models.File] {
	return deliver(ctx, fn, func(ctx context.Context) ([]*models.File, error) {
		files, err := s.List(ctx, parentID)
		if err != nil {
			return []*models.File{}, err
		}
		return files, nil
	})
}

// DeleteFunc deletes files and reports success to fn.
func (s *Service) DeleteFunc(ctx context.Context, files []*models.File, fn func(bool)) *Future[bool] {
	return deliver(ctx, fn, func(ctx context.Context) (bool, error) {
		err := s.Delete(ctx, files)
		return client.OK(err), err
	})
}

// MoveFunc moves files under to and reports success to fn.
func (s *Service) MoveFunc(ctx context.Context, files []*models.File, to int64, fn func(bool)) *Future[bool] {
	return deliver(ctx, fn, func(ctx context.Context) (bool, error) {
		err := s.Move(ctx, files, to)
		return client.OK(err), err
	})
}

func deliver[T any](ctx context.Context, fn func(T), op func(context.Context) (T, error)) *Future[T] {
	return Go(ctx, func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		if fn != nil {
			fn(v)
		}
		return v, err
	})
}
