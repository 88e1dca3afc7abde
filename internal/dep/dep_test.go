package dep

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResource is a goal backed by a boolean. Meet flips it unless broken.
type fakeResource struct {
	name      string
	held      bool
	broken    bool // Meet succeeds without establishing the goal
	meetErr   error
	metErr    error
	requires  []Resource
	toMeet    []Resource
	log       *[]string
	meetCalls int
	metCalls  int
}

func (f *fakeResource) String() string { return f.name }

func (f *fakeResource) Met(context.Context) (Status, error) {
	f.metCalls++
	f.record("met " + f.name)
	if f.metErr != nil {
		return Unmet, f.metErr
	}
	return Status(f.held), nil
}

func (f *fakeResource) Meet(context.Context) error {
	f.meetCalls++
	f.record("meet " + f.name)
	if f.meetErr != nil {
		return f.meetErr
	}
	if !f.broken {
		f.held = true
	}
	return nil
}

func (f *fakeResource) Requires() []Resource { return f.requires }

func (f *fakeResource) RequiresToMeet() []Resource { return f.toMeet }

func (f *fakeResource) record(s string) {
	if f.log != nil {
		*f.log = append(*f.log, s)
	}
}

func TestProcess_MetDoesNothing(t *testing.T) {
	r := &fakeResource{name: "a", held: true}

	require.NoError(t, Process(context.Background(), r))
	assert.Equal(t, 0, r.meetCalls)
	assert.Equal(t, 1, r.metCalls)
}

func TestProcess_Idempotent(t *testing.T) {
	r := &fakeResource{name: "a"}

	err1 := Process(context.Background(), r)
	err2 := Process(context.Background(), r)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 1, r.meetCalls, "second call must not converge again")
}

func TestProcess_IdempotentFailureOutcome(t *testing.T) {
	r := &fakeResource{name: "a", broken: true}

	err1 := Process(context.Background(), r)
	err2 := Process(context.Background(), r)

	assert.ErrorIs(t, err1, ErrPostcondition)
	assert.ErrorIs(t, err2, ErrPostcondition)
}

func TestProcess_PostconditionViolation(t *testing.T) {
	r := &fakeResource{name: "session demo", broken: true}

	err := Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPostcondition)

	var unmet *UnmetError
	require.True(t, errors.As(err, &unmet))
	assert.Equal(t, "session demo", unmet.Resource)
	assert.Equal(t, 1, r.meetCalls, "never retried")
	assert.Equal(t, 2, r.metCalls)
}

func TestProcess_MeetErrorIsNotPostcondition(t *testing.T) {
	boom := errors.New("spawn failed")
	r := &fakeResource{name: "a", meetErr: boom}

	err := Process(context.Background(), r)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPostcondition)
}

func TestProcess_StatusErrorStopsBeforeMeet(t *testing.T) {
	boom := errors.New("cannot query")
	r := &fakeResource{name: "a", metErr: boom}

	err := Process(context.Background(), r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.meetCalls)
}

func TestProcess_Order(t *testing.T) {
	var log []string
	hard1 := &fakeResource{name: "hard1", held: true, log: &log}
	hard2 := &fakeResource{name: "hard2", held: true, log: &log}
	soft1 := &fakeResource{name: "soft1", log: &log}
	soft2 := &fakeResource{name: "soft2", held: true, log: &log}
	root := &fakeResource{
		name:     "root",
		log:      &log,
		requires: []Resource{hard1, hard2},
		toMeet:   []Resource{soft1, soft2},
	}

	require.NoError(t, Process(context.Background(), root))
	assert.Equal(t, []string{
		"met hard1",
		"met hard2",
		"met root",
		"met soft1",
		"meet soft1",
		"met soft1",
		"met soft2",
		"meet root",
		"met root",
	}, log)
}

func TestProcess_SoftPreconditionsSkippedWhenMet(t *testing.T) {
	soft := &fakeResource{name: "soft"}
	root := &fakeResource{name: "root", held: true, toMeet: []Resource{soft}}

	require.NoError(t, Process(context.Background(), root))
	assert.Equal(t, 0, soft.metCalls)
	assert.Equal(t, 0, soft.meetCalls)
}

func TestProcess_HardFailureFailsFast(t *testing.T) {
	boom := errors.New("hard failed")
	hard1 := &fakeResource{name: "hard1", meetErr: boom}
	hard2 := &fakeResource{name: "hard2"}
	root := &fakeResource{name: "root", requires: []Resource{hard1, hard2}}

	err := Process(context.Background(), root)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, hard2.metCalls, "later preconditions are not evaluated")
	assert.Equal(t, 0, root.metCalls, "own status is not evaluated")
}

func TestProcess_SoftFailureSkipsMeet(t *testing.T) {
	soft := &fakeResource{name: "create", broken: true}
	root := &fakeResource{name: "attach", toMeet: []Resource{soft}}

	err := Process(context.Background(), root)
	assert.ErrorIs(t, err, ErrPostcondition)
	assert.Equal(t, 0, root.meetCalls)
}

func TestProcess_Recursive(t *testing.T) {
	leaf := &fakeResource{name: "leaf"}
	mid := &fakeResource{name: "mid", toMeet: []Resource{leaf}}
	root := &fakeResource{name: "root", toMeet: []Resource{mid}}

	require.NoError(t, Process(context.Background(), root))
	assert.True(t, leaf.held)
	assert.True(t, mid.held)
	assert.True(t, root.held)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "met", Met.String())
	assert.Equal(t, "unmet", Unmet.String())
}
