package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")
	// ErrUnknownCurrency will throw if the requested currency is not registered
	ErrUnknownCurrency = errors.New("unknown currency")

	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidTimeWindow   = errors.New("invalid time window")
	ErrQueryTimeout        = errors.New("upstream query timeout")

	// request error
	ErrInvalidAddress = errors.New("Invalid address")
)
