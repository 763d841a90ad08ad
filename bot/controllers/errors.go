package controllers

import "errors"

var (
	// ErrBadTribeCategory means the user already belongs to a tribe of the same category.
	ErrBadTribeCategory = errors.New("member already belongs to a tribe in this category")

	ErrCategoryExists   = errors.New("tribe category already exists")
	ErrCategoryNotFound = errors.New("tribe category not found")
	ErrTribeNotFound    = errors.New("tribe not found")
	ErrNotMember        = errors.New("user is not a member of the tribe")
	ErrSelfTarget       = errors.New("user cannot target themselves")
	ErrAlreadyManager   = errors.New("user is already the tribe manager")
)
