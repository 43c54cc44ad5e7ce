package errors

type ErrorCode int

const (
	ErrConfigMissing ErrorCode = iota + 1
	ErrConfigMalformed
	ErrContentRead
	ErrSyncFailed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrConfigMissing:
		return "config missing"
	case ErrConfigMalformed:
		return "config malformed"
	case ErrContentRead:
		return "content read failure"
	case ErrSyncFailed:
		return "sync failed"
	}
	return "unknown"
}

// AppError 带错误码的应用错误
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func New(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, &AppError{Code: ...}) 可用
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// 哨兵错误，只比较错误码
var (
	ErrMissing   = &AppError{Code: ErrConfigMissing, Message: ErrConfigMissing.String()}
	ErrMalformed = &AppError{Code: ErrConfigMalformed, Message: ErrConfigMalformed.String()}
	ErrRead      = &AppError{Code: ErrContentRead, Message: ErrContentRead.String()}
	ErrSync      = &AppError{Code: ErrSyncFailed, Message: ErrSyncFailed.String()}
)
