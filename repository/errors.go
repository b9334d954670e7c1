package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate 唯一键冲突
	ErrDuplicate = errors.New("repository: duplicate")
)
