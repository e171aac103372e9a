package service

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownPriority  = errors.New("unknown priority")
	ErrUnknownStatus    = errors.New("unknown status")
	ErrEmptyName        = errors.New("empty name")
)
