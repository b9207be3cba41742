package credential

import "errors"

var (
	// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合に返却されます。
	ErrEmptyPassword = errors.New("credential: password must not be empty")
	// ErrMalformedHash は保存済みダイジェストが破損している場合に返却されます。
	// 不一致として扱ってはいけません。
	ErrMalformedHash = errors.New("credential: malformed password hash")
)
