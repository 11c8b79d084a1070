package student

import "time"

// FormData is the raw registration form. StudentID is filled in by the persist
// step once the record is created.
type FormData struct {
	FirstName string `json:"first_name" yaml:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" yaml:"last_name" validate:"required,max=100"`
	Email     string `json:"email" yaml:"email" validate:"required,email"`
	Phone     string `json:"phone" yaml:"phone" validate:"required,e164"`

	StudentID string `json:"student_id,omitempty" yaml:"-" validate:"-"`
}

// Student is a registered student as handed to a Store.
type Student struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
