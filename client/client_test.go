package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"breadit/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	cases := []struct {
		name      string
		from      State
		click     models.VoteType
		want      State
		wantDelta int
	}{
		{"none to up", State{VoteNone, 5}, models.VoteUp, State{models.VoteUp, 6}, 1},
		{"none to down", State{VoteNone, 5}, models.VoteDown, State{models.VoteDown, 4}, -1},
		{"up toggled off", State{models.VoteUp, 6}, models.VoteUp, State{VoteNone, 5}, -1},
		{"down toggled off", State{models.VoteDown, 4}, models.VoteDown, State{VoteNone, 5}, 1},
		{"down to up", State{models.VoteDown, 4}, models.VoteUp, State{models.VoteUp, 6}, 2},
		{"up to down", State{models.VoteUp, 6}, models.VoteDown, State{models.VoteDown, 4}, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, delta := Predict(tc.from, tc.click)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantDelta, delta)
			assert.Equal(t, tc.from, Rollback(got, tc.from.CurrentVote, delta))
		})
	}
}

type scriptedVoter struct {
	err error
}

func (v scriptedVoter) Vote(context.Context, string, models.VoteType) error { return v.err }

func TestController_FailureRollsBack(t *testing.T) {
	var seen []State
	ctrl := NewController("p1", State{VoteNone, 5}, scriptedVoter{err: errors.New("boom")},
		WithOnChange(func(s State) { seen = append(seen, s) }))

	err := ctrl.Vote(context.Background(), models.VoteUp)
	require.Error(t, err)

	assert.Equal(t, []State{{models.VoteUp, 6}, {VoteNone, 5}}, seen, "prediction applied before the request resolves")
	assert.Equal(t, State{VoteNone, 5}, ctrl.State())
}

func TestController_SuccessKeepsPrediction(t *testing.T) {
	ctrl := NewController("p1", State{models.VoteDown, 2}, scriptedVoter{})

	require.NoError(t, ctrl.Vote(context.Background(), models.VoteUp))
	assert.Equal(t, State{models.VoteUp, 4}, ctrl.State())
}

func TestController_InvalidVote(t *testing.T) {
	ctrl := NewController("p1", State{VoteNone, 0}, scriptedVoter{})
	err := ctrl.Vote(context.Background(), models.VoteType("x"))
	assert.ErrorIs(t, err, ErrInvalidVote)
	assert.Equal(t, State{VoteNone, 0}, ctrl.State())
}

// gatedVoter 让每个请求阻塞到测试放行
type gatedVoter struct {
	mu    sync.Mutex
	gates []chan error
	ready chan struct{}
}

func (v *gatedVoter) Vote(ctx context.Context, _ string, _ models.VoteType) error {
	gate := make(chan error)
	v.mu.Lock()
	v.gates = append(v.gates, gate)
	v.mu.Unlock()
	v.ready <- struct{}{}
	return <-gate
}

func (v *gatedVoter) release(i int, err error) {
	v.mu.Lock()
	gate := v.gates[i]
	v.mu.Unlock()
	gate <- err
}

func TestController_SupersededRollbackIsSkipped(t *testing.T) {
	voter := &gatedVoter{ready: make(chan struct{}, 2)}
	ctrl := NewController("p1", State{VoteNone, 5}, voter)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- ctrl.Vote(ctx, models.VoteUp) }()
	<-voter.ready
	assert.Equal(t, State{models.VoteUp, 6}, ctrl.State())

	secondDone := make(chan error, 1)
	go func() { secondDone <- ctrl.Vote(ctx, models.VoteDown) }()
	<-voter.ready
	assert.Equal(t, State{models.VoteDown, 4}, ctrl.State())

	// 第一个请求失败，但已被第二个预测取代，不回滚
	voter.release(0, errors.New("timeout"))
	require.Error(t, <-firstDone)
	assert.Equal(t, State{models.VoteDown, 4}, ctrl.State())

	voter.release(1, nil)
	require.NoError(t, <-secondDone)
	assert.Equal(t, State{models.VoteDown, 4}, ctrl.State())
}

func TestController_ResetSupersedesInFlight(t *testing.T) {
	voter := &gatedVoter{ready: make(chan struct{}, 1)}
	ctrl := NewController("p1", State{VoteNone, 5}, voter)

	done := make(chan error, 1)
	go func() { done <- ctrl.Vote(context.Background(), models.VoteUp) }()
	<-voter.ready

	ctrl.Reset(State{models.VoteUp, 10})
	voter.release(0, errors.New("boom"))
	require.Error(t, <-done)
	assert.Equal(t, State{models.VoteUp, 10}, ctrl.State())
}

func TestHTTPVoter(t *testing.T) {
	var gotAuth, gotMethod string
	status := http.StatusCreated
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	v := NewHTTPVoter(srv.URL+"/", "abc")
	require.NoError(t, v.Vote(context.Background(), "p1", models.VoteUp))
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, http.MethodPatch, gotMethod)

	status = http.StatusUnauthorized
	assert.ErrorIs(t, v.Vote(context.Background(), "p1", models.VoteUp), ErrUnauthenticated)

	status = http.StatusInternalServerError
	err := v.Vote(context.Background(), "p1", models.VoteUp)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "nope", se.Body)
}
