package form

import (
	"context"

	"github.com/dcshock/formpipe/pipeline"
)

// Service is an external collaborator performing one discrete operation
// (create a record, call an API, ...). Run returns nil on success.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context) error

func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Delegate returns a step that builds a Service from the run's payload and runs
// it. The service's error becomes the step's error unchanged.
func Delegate[C any](newService func(C) Service) pipeline.Step[C] {
	return func(ctx context.Context, c C) error {
		return newService(c).Run(ctx)
	}
}
