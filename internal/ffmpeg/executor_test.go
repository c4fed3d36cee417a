package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock types ---

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	ret := m.Called(ctx, name, args, stdin)
	stdout, _ := ret.Get(0).([]byte)
	stderr, _ := ret.Get(1).([]byte)
	return stdout, stderr, ret.Error(2)
}

func (m *MockRunner) LookPath(name string) (string, error) {
	ret := m.Called(name)
	return ret.String(0), ret.Error(1)
}

// --- Tests ---

func TestExecutor_Execute(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", []string{"-version"}, nil).
		Return([]byte("ffmpeg version 7.1"), []byte(nil), nil).Once()

	e := NewExecutorWithRunner("ffmpeg", time.Second, runner)
	stdout, _, err := e.Execute(context.Background(), []string{"-version"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ffmpeg version 7.1", string(stdout))
	runner.AssertExpectations(t)
}

func TestExecutor_ExecuteAppliesTimeout(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return([]byte(nil), []byte(nil), errors.New("signal: killed")).Once()

	e := NewExecutorWithRunner("ffmpeg", 10*time.Millisecond, runner)
	_, _, err := e.Execute(context.Background(), nil, nil)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_ExecuteCallerCanceled(t *testing.T) {
	runner := new(MockRunner)
	ctx, cancel := context.WithCancel(context.Background())
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(mock.Arguments) { cancel() }).
		Return([]byte(nil), []byte(nil), errors.New("signal: killed")).Once()

	e := NewExecutorWithRunner("ffmpeg", time.Minute, runner)
	_, _, err := e.Execute(ctx, nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecutor_ExecuteCallerDeadline(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return([]byte(nil), []byte(nil), errors.New("signal: killed")).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	e := NewExecutorWithRunner("ffmpeg", time.Minute, runner)
	_, _, err := e.Execute(ctx, nil, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecutor_Available(t *testing.T) {
	runner := new(MockRunner)
	runner.On("LookPath", "ffmpeg").Return("", exec.ErrNotFound).Once()
	runner.On("LookPath", "/opt/ffmpeg").Return("/opt/ffmpeg", nil).Once()

	assert.ErrorIs(t, NewExecutorWithRunner("ffmpeg", 0, runner).Available(), ErrUnavailable)
	assert.NoError(t, NewExecutorWithRunner("/opt/ffmpeg", 0, runner).Available())
	runner.AssertExpectations(t)
}

func TestExecCommandRunner_MissingBinary(t *testing.T) {
	_, _, err := ExecCommandRunner{}.Run(context.Background(), "quietwave-no-such-binary", nil, nil)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
