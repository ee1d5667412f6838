package icalendar

import "errors"

var (
	// ErrNoFilename is returned when the reader was created without a path
	ErrNoFilename = errors.New("no calendar filename given")

	// ErrFileNotFound is returned when no regular file exists at the path
	ErrFileNotFound = errors.New("calendar file not found")

	// ErrInvalidFile is returned when the content is not a well-formed iCalendar document
	ErrInvalidFile = errors.New("invalid calendar file")
)
