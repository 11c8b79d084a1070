// Package student wires the new-student registration runners:
//
//   - FormValidator (Validate): per-field checks, e-mail then phone number.
//   - Form (Process): validate the whole payload, then persist it through the
//     CreateNewStudent service.
//
// Both are single-use form.Runner values over a *FormData. ValidateThenProcess
// chains the validator with the service the way a server-side route does:
// validate, then create, then respond.
package student
