package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrDetailUnavailable   = errors.New("detail series unavailable")
	ErrRegionNotFound      = errors.New("region not found")
)

// User-facing messages.
const (
	MsgSnapshotEmpty  = "Seçili tarih-saat verisi geçici olarak alınamadı. Önceki veri korunuyor, lütfen tekrar deneyin."
	MsgSnapshotFailed = "Seçili tarih-saat verisi yüklenemedi. Lütfen tekrar deneyin."
	MsgDetailFailed   = "Hava durumu yüklenemedi. Lütfen tekrar deneyin."
	MsgRegionNotFound = "Seçilen il eşleşmedi. Lütfen listeden il seçin."
)

// UserError is the single error value shown to the user. Kind is one of the
// sentinel errors above; Cause is the underlying failure, if any.
type UserError struct {
	Kind      error
	Message   string
	Retryable bool
	Cause     error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Cause.Error()
	}
	return e.Kind.Error()
}

func (e *UserError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// SnapshotEmptyError reports a snapshot in which no province resolved.
func SnapshotEmptyError() *UserError {
	return &UserError{Kind: ErrSnapshotUnavailable, Message: MsgSnapshotEmpty, Retryable: true}
}

// SnapshotFetchError reports a failed snapshot fetch.
func SnapshotFetchError(cause error) *UserError {
	return &UserError{Kind: ErrSnapshotUnavailable, Message: MsgSnapshotFailed, Retryable: true, Cause: cause}
}

// DetailFetchError reports a failed detail fetch with no fallback.
func DetailFetchError(cause error) *UserError {
	return &UserError{Kind: ErrDetailUnavailable, Message: MsgDetailFailed, Retryable: true, Cause: cause}
}

// RegionNotFoundError reports a region selection that matched nothing.
func RegionNotFoundError(query string) *UserError {
	return &UserError{Kind: ErrRegionNotFound, Message: MsgRegionNotFound, Cause: fmt.Errorf("no region matches %q", query)}
}
