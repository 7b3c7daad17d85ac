package models

// LoginForm is posted by the login page
type LoginForm struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,eqfield=ConfirmPassword"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
}

// RegisterForm creates an inactive account; the password is set through the emailed link
type RegisterForm struct {
	Email    string `form:"email" validate:"required,email,max=64"`
	Username string `form:"username" validate:"required,max=64"`
}

// ResetPasswordForm sets a password from a reset link
type ResetPasswordForm struct {
	Password        string `form:"password" validate:"required,min=10"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// ForgotPasswordForm requests a new reset link
type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required"`
}

// UserForm updates the profile of the logged in user. The picture is read from the multipart body.
type UserForm struct {
	Email    string `form:"email" validate:"required,email,max=64"`
	Username string `form:"username" validate:"required,max=64"`
}

// ChangePasswordForm changes the password of the logged in user
type ChangePasswordForm struct {
	Password        string `form:"password" validate:"required,min=10"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// UserSearchForm is bound from the query string of the search page.
// The page number is read separately so a malformed value falls back to the first page.
type UserSearchForm struct {
	Username string `query:"username" validate:"required"`
}

// ConnectForm sends or accepts a friend request
type ConnectForm struct {
	ConnectCondition string `form:"connect_condition" validate:"required,oneof=connect accept"`
	ToUserID         uint   `form:"to_user_id" validate:"required"`
}

// MessageForm posts a message to a friend
type MessageForm struct {
	ToUserID uint   `form:"to_user_id"`
	Message  string `form:"message" validate:"required"`
}

// ContactForm submits a support inquiry
type ContactForm struct {
	Body string `form:"body" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}
