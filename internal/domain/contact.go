package domain

import "time"

type ContactKind string

const (
	ContactGeneral  ContactKind = "general"
	ContactBusiness ContactKind = "business"
)

type GeneralContact struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type BusinessContact struct {
	Company string `json:"company" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type Mail struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Inquiry is the archived form of a contact submission.
type Inquiry struct {
	ID        string
	Kind      ContactKind
	Email     string
	Payload   []byte // submitted fields as JSON
	Delivered bool
	Error     *string
	CreatedAt time.Time
}
