package main

import "errors"

// errReported is returned after the error text was already shown.
var errReported = errors.New("command failed")
