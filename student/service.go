package student

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcshock/formpipe/form"
	"github.com/dcshock/formpipe/pipeline"
	"github.com/google/uuid"
)

// CreateStudent is the service object that creates one student record from a
// form. It runs once per form.
type CreateStudent struct {
	data  *FormData
	store Store
	now   func() time.Time
}

var _ form.Service = (*CreateStudent)(nil)

// CreateNewStudent returns the service creating a student from data in store.
func CreateNewStudent(data *FormData, store Store) *CreateStudent {
	return &CreateStudent{data: data, store: store, now: time.Now}
}

// Run inserts the student and records its ID on the form. A duplicate e-mail is
// returned as is; any other store failure is marked retryable.
func (c *CreateStudent) Run(ctx context.Context) error {
	s := Student{
		ID:        uuid.New().String(),
		FirstName: c.data.FirstName,
		LastName:  c.data.LastName,
		Email:     c.data.Email,
		Phone:     c.data.Phone,
		CreatedAt: c.now().UTC(),
	}
	if err := c.store.Insert(ctx, s); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return pipeline.RetryableErr(fmt.Errorf("create student: %w", err))
	}
	c.data.StudentID = s.ID
	return nil
}
