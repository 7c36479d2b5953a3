package org

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrBranchNameTaken = errors.New("branch name already exists")
	ErrUnknownBranch   = errors.New("branch does not exist")
)
