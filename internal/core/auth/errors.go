package auth

import "errors"

var (
	// ErrInvalidCredentials は利用者不明とパスワード不一致を区別せずに返却されます。
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingEmail はメールアドレス未指定時に返却されます。
	ErrMissingEmail = errors.New("auth: email is required")
	// ErrMissingUsername はユーザー名未指定時に返却されます。
	ErrMissingUsername = errors.New("auth: username is required")
	// ErrMissingPassword はパスワード未指定時に返却されます。
	ErrMissingPassword = errors.New("auth: password is required")
	// ErrMissingEmployeeID は社員 ID 未指定時に返却されます。
	ErrMissingEmployeeID = errors.New("auth: employee id is required")
)
