package models

import "fmt"

// EmptyInputError is returned by Fit when there are no training labels.
type EmptyInputError struct {
	Model string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: cannot fit on an empty label set", e.Model)
}

// NotFittedError is returned when a model is used before a successful Fit.
type NotFittedError struct {
	Model string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: model is not fitted, call Fit first", e.Model)
}

// LabelRangeError reports a class label that does not fit the configured output width.
type LabelRangeError struct {
	Label any
	Width OutputWidth
}

func (e *LabelRangeError) Error() string {
	return fmt.Sprintf("label %v cannot be represented as a %d-bit unsigned integer", e.Label, int(e.Width))
}
