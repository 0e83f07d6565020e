package models

// GenerateForm is the multipart body of POST /api/generate. Sliders stay
// strings so an absent field can be told apart from an explicit 0.
type GenerateForm struct {
	JobTitle      string `form:"jobTitle" validate:"notblank"`
	Company       string `form:"company" validate:"notblank"`
	Inventiveness string `form:"inventiveness" validate:"omitempty,slider"`
	Humor         string `form:"humor" validate:"omitempty,slider"`
}
