package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func waitCanceled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerFailFast(t *testing.T) {
	failure := errors.New("link down")
	r := NewRunner()
	r.FailFast = true
	r.Go(RunnableFunc(waitCanceled), NamedRun("link", RunnableFunc(func(context.Context) error {
		return failure
	})))
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{failure}, agg.Errors)
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunnableFunc(waitCanceled), RunnableFunc(waitCanceled))
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "2 errors: a; b", errs.Aggregate().Error())
	require.True(t, errors.Is(&errs, errs.Errors[1]))
}
