package student

import (
	"context"

	"github.com/dcshock/formpipe/form"
	"github.com/dcshock/formpipe/pipeline"
	"github.com/dcshock/formpipe/validation"
)

const (
	FormName          = "new-student-form"
	FormValidatorName = "new-student-form-validator"
)

// Deps are the collaborators the student runners call into.
type Deps struct {
	Validator validation.FieldValidator
	Store     Store
	// PersistRetry, when set, retries the persist step on retryable failures.
	PersistRetry *pipeline.RetryPolicy
}

// Steps returns every named step the student runners are built from, for use
// with a step registry.
func (d Deps) Steps() map[string]pipeline.Step[*FormData] {
	return map[string]pipeline.Step[*FormData]{
		"validate":       d.validate(),
		"validate_email": d.validateField("Email"),
		"validate_phone": d.validateField("Phone"),
		"persist":        d.persist(),
	}
}

func (d Deps) validate() pipeline.Step[*FormData] {
	return func(ctx context.Context, data *FormData) error {
		return d.Validator.ValidateStruct(ctx, data)
	}
}

func (d Deps) validateField(field string) pipeline.Step[*FormData] {
	return func(ctx context.Context, data *FormData) error {
		return d.Validator.ValidateField(ctx, data, field)
	}
}

func (d Deps) persist() pipeline.Step[*FormData] {
	step := form.Delegate(func(data *FormData) form.Service {
		return CreateNewStudent(data, d.Store)
	})
	if d.PersistRetry != nil {
		step = pipeline.Retry(step, *d.PersistRetry)
	}
	return step
}

// Form processes a new-student form: validate, then persist.
type Form struct {
	runner *form.Runner[*FormData]
}

// NewForm returns a single-use Form for data.
func NewForm(data *FormData, deps Deps, opts ...form.Option) *Form {
	steps := deps.Steps()
	return &Form{runner: form.New(FormName, data, []pipeline.Step[*FormData]{
		steps["validate"],
		steps["persist"],
	}, opts...)}
}

// Process runs the form. See form.Runner.Run.
func (f *Form) Process(ctx context.Context) *pipeline.Future { return f.runner.Run(ctx) }

// State returns the form's lifecycle state.
func (f *Form) State() form.State { return f.runner.State() }

// FormValidator guards form values field by field: e-mail, then phone number.
type FormValidator struct {
	runner *form.Runner[*FormData]
}

// NewFormValidator returns a single-use FormValidator for data.
func NewFormValidator(data *FormData, v validation.FieldValidator, opts ...form.Option) *FormValidator {
	steps := Deps{Validator: v}.Steps()
	return &FormValidator{runner: form.New(FormValidatorName, data, []pipeline.Step[*FormData]{
		steps["validate_email"],
		steps["validate_phone"],
	}, opts...)}
}

// Validate runs the validator. See form.Runner.Run.
func (v *FormValidator) Validate(ctx context.Context) *pipeline.Future { return v.runner.Run(ctx) }

// State returns the validator's lifecycle state.
func (v *FormValidator) State() form.State { return v.runner.State() }

// ValidateThenProcess validates data field by field and, only if that succeeds,
// creates the student. The returned Future fails with the first error of either
// stage. opts apply to the validator run.
func ValidateThenProcess(ctx context.Context, data *FormData, deps Deps, opts ...form.Option) *pipeline.Future {
	return NewFormValidator(data, deps.Validator, opts...).Validate(ctx).
		Then(ctx, func(ctx context.Context) *pipeline.Future {
			persist := deps.persist()
			return pipeline.Go(ctx, func(ctx context.Context) error { return persist(ctx, data) })
		})
}
