package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSelfFollow        = errors.New("cannot follow self")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrRequestNotPending = errors.New("follow request is not pending")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// notFound 把 gorm 的未找到错误转成 ErrNotFound，其余原样返回
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
