// File: internal/session/twofactor_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// pageState is one snapshot of the challenge page that the fake probe serves
// per poll iteration.
type pageState struct {
	trustVisible bool
	retryVisible bool
	count        int
}

// fakeProbe replays a scripted sequence of page states and records the
// actions taken against each. The script index advances once per Visible
// round (keyed off the trust selector) or per Count call.
type fakeProbe struct {
	t      *testing.T
	states []pageState
	idx    int

	clicks []string
	sleeps int
	readys int
}

func (f *fakeProbe) current() pageState {
	if f.idx >= len(f.states) {
		f.t.Fatalf("probe polled past scripted states (%d polls scripted)", len(f.states))
	}
	return f.states[f.idx]
}

func (f *fakeProbe) Visible(_ context.Context, selector string) (bool, error) {
	s := f.current()
	switch selector {
	case selTrustButton:
		return s.trustVisible, nil
	case selRetryButton:
		// Retry is checked second; this poll round is now consumed.
		f.idx++
		return s.retryVisible, nil
	default:
		f.t.Fatalf("unexpected visibility probe for %q", selector)
		return false, nil
	}
}

func (f *fakeProbe) Count(_ context.Context, selector string) (int, error) {
	s := f.current()
	f.idx++
	return s.count, nil
}

func (f *fakeProbe) Click(_ context.Context, selector string) error {
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeProbe) WaitReady(_ context.Context) error {
	f.readys++
	return nil
}

func (f *fakeProbe) Sleep(_ context.Context, _ time.Duration) error {
	f.sleeps++
	return nil
}

func TestAwaitTrustApproval_IdlesUntilTrustAppears(t *testing.T) {
	t.Parallel()

	probe := &fakeProbe{t: t, states: []pageState{
		{}, // pending on the other device
		{}, // still pending
		{trustVisible: true},
	}}

	err := awaitTrustApproval(context.Background(), probe, time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, probe.sleeps)
	assert.Equal(t, []string{selTrustButton}, probe.clicks)
}

func TestAwaitTrustApproval_RetriesExpiredPush(t *testing.T) {
	t.Parallel()

	probe := &fakeProbe{t: t, states: []pageState{
		{retryVisible: true},
		{},
		{trustVisible: true},
	}}

	err := awaitTrustApproval(context.Background(), probe, time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{selRetryButton, selTrustButton}, probe.clicks)
	assert.Equal(t, 1, probe.readys, "retry click must wait for the page to settle")
	assert.Equal(t, 1, probe.sleeps)
}

func TestAwaitTrustApproval_PrefersTrustWhenBothVisible(t *testing.T) {
	t.Parallel()

	probe := &fakeProbe{t: t, states: []pageState{
		{trustVisible: true, retryVisible: true},
	}}

	err := awaitTrustApproval(context.Background(), probe, time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{selTrustButton}, probe.clicks)
}

func TestAwaitTrustApproval_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := &fakeProbe{t: t, states: []pageState{{}}}
	err := awaitTrustApproval(ctx, probe, time.Second, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, probe.clicks)
}

func TestSelectSingleSuggestion_WaitsForExactlyOneMatch(t *testing.T) {
	t.Parallel()

	probe := &fakeProbe{t: t, states: []pageState{
		{count: 4},
		{count: 2},
		{count: 1},
	}}

	err := selectSingleSuggestion(context.Background(), probe, selSuggestion, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, probe.sleeps)
	assert.Equal(t, []string{selSuggestion}, probe.clicks)
}

func TestSelectSingleSuggestion_ZeroMatchesKeepsPolling(t *testing.T) {
	t.Parallel()

	probe := &fakeProbe{t: t, states: []pageState{
		{count: 0},
		{count: 1},
	}}

	err := selectSingleSuggestion(context.Background(), probe, selSuggestion, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, probe.sleeps)
}

// errProbe fails every visibility probe; the loop must surface the error
// instead of spinning.
type errProbe struct{ fakeProbe }

func (e *errProbe) Visible(_ context.Context, _ string) (bool, error) {
	return false, errors.New("target crashed")
}

func TestAwaitTrustApproval_ProbeErrorPropagates(t *testing.T) {
	t.Parallel()

	probe := &errProbe{}
	err := awaitTrustApproval(context.Background(), probe, time.Second, zaptest.NewLogger(t))
	assert.EqualError(t, err, "target crashed")
}
