package models

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordRejected = errors.New("record rejected by store")
	ErrEmailTaken     = errors.New("email already stored")
)
