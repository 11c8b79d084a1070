package student

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dcshock/formpipe/form"
	"github.com/dcshock/formpipe/pipeline"
	"github.com/dcshock/formpipe/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *FormData {
	return &FormData{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+14155552671",
	}
}

func testDeps() (Deps, *MemoryStore) {
	store := NewMemoryStore()
	return Deps{Validator: validation.New(), Store: store}, store
}

type feedbackRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *feedbackRecorder) record(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *feedbackRecorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestForm_Process_CreatesStudent(t *testing.T) {
	deps, store := testDeps()
	data := validForm()

	f := NewForm(data, deps)
	require.NoError(t, f.Process(context.Background()).Wait(context.Background()))

	assert.Equal(t, form.Succeeded, f.State())
	require.NotEmpty(t, data.StudentID)
	s, err := store.Get(data.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, "Lovelace", s.LastName)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestForm_Process_InvalidEmailSkipsPersist(t *testing.T) {
	deps, store := testDeps()
	data := validForm()
	data.Email = "not-an-email"
	fb := &feedbackRecorder{}

	err := NewForm(data, deps, form.WithFeedback(fb.record)).Process(context.Background()).Wait(context.Background())
	require.Error(t, err)

	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"email"}, errs.Fields())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, data.StudentID)
	require.Len(t, fb.all(), 1)
	assert.Equal(t, err, fb.all()[0])
}

func TestForm_Process_PersistFailureReportsFeedbackFirst(t *testing.T) {
	deps, store := testDeps()
	store.FailNext(errors.New("connection reset"))
	fb := &feedbackRecorder{}

	fut := NewForm(validForm(), deps, form.WithFeedback(fb.record)).Process(context.Background())
	seenAtRejection := make(chan int, 1)
	fut.OnFailure(func(error) { seenAtRejection <- len(fb.all()) })
	err := fut.Wait(context.Background())
	seen := <-seenAtRejection

	require.Error(t, err)
	assert.True(t, pipeline.IsRetryable(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, seen)
}

func TestForm_Process_RetriesTransientStoreFailure(t *testing.T) {
	deps, store := testDeps()
	deps.PersistRetry = &pipeline.RetryPolicy{
		MaxAttempts: 3,
		Initial:     time.Millisecond,
		ShouldRetry: pipeline.IsRetryable,
	}
	store.FailNext(errors.New("timeout"), errors.New("timeout"))

	data := validForm()
	require.NoError(t, NewForm(data, deps).Process(context.Background()).Wait(context.Background()))
	assert.Equal(t, 1, store.Len())
	assert.NotEmpty(t, data.StudentID)
}

func TestForm_Process_DuplicateEmailIsNotRetried(t *testing.T) {
	deps, store := testDeps()
	deps.PersistRetry = &pipeline.RetryPolicy{
		MaxAttempts: 5,
		Initial:     time.Millisecond,
		ShouldRetry: pipeline.IsRetryable,
	}
	require.NoError(t, NewForm(validForm(), deps).Process(context.Background()).Wait(context.Background()))

	dup := validForm()
	dup.Email = "ADA@example.com"
	err := NewForm(dup, deps).Process(context.Background()).Wait(context.Background())
	require.ErrorIs(t, err, ErrDuplicateEmail)
	assert.False(t, pipeline.IsRetryable(err))
	assert.Equal(t, 1, store.Len())
}

func TestForm_Process_SecondCallRejected(t *testing.T) {
	deps, store := testDeps()
	f := NewForm(validForm(), deps)
	require.NoError(t, f.Process(context.Background()).Wait(context.Background()))

	err := f.Process(context.Background()).Wait(context.Background())
	require.ErrorIs(t, err, form.ErrAlreadyStarted)
	assert.Equal(t, form.Succeeded, f.State())
	assert.Equal(t, 1, store.Len())
}

func TestFormValidator_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormData)
		field  string
	}{
		{name: "valid"},
		{name: "bad email", mutate: func(d *FormData) { d.Email = "nope" }, field: "email"},
		{name: "bad phone", mutate: func(d *FormData) { d.Phone = "555-1234" }, field: "phone"},
		{name: "email checked first", mutate: func(d *FormData) { d.Email = ""; d.Phone = "" }, field: "email"},
		{name: "names not checked", mutate: func(d *FormData) { d.FirstName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validForm()
			if tt.mutate != nil {
				tt.mutate(data)
			}
			v := NewFormValidator(data, validation.New())
			err := v.Validate(context.Background()).Wait(context.Background())
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, form.Succeeded, v.State())
				return
			}
			errs, ok := validation.AsErrors(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, []string{tt.field}, errs.Fields())
			assert.Equal(t, form.Failed, v.State())
		})
	}
}

func TestValidateThenProcess(t *testing.T) {
	deps, store := testDeps()
	data := validForm()
	require.NoError(t, ValidateThenProcess(context.Background(), data, deps).Wait(context.Background()))
	assert.Equal(t, 1, store.Len())
	assert.NotEmpty(t, data.StudentID)
}

func TestValidateThenProcess_InvalidNeverPersists(t *testing.T) {
	deps, store := testDeps()
	data := validForm()
	data.Phone = "call me"
	fb := &feedbackRecorder{}

	err := ValidateThenProcess(context.Background(), data, deps, form.WithFeedback(fb.record)).Wait(context.Background())
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"phone"}, errs.Fields())
	assert.Equal(t, 0, store.Len())
	assert.Len(t, fb.all(), 1)
}

func TestDeps_Steps(t *testing.T) {
	deps, _ := testDeps()
	steps := deps.Steps()
	for _, name := range []string{"validate", "validate_email", "validate_phone", "persist"} {
		assert.Contains(t, steps, name)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CreateNewStudent(validForm(), store).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, pipeline.IsRetryable(err))
	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
