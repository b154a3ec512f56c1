package slogx

// ErrorKey is the attribute key for errors.
const ErrorKey = "error"
