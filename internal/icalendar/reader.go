package icalendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/username/school-scheduler/internal/calendar"
)

// FileReader reads an iCalendar file into periods, one per VEVENT
type FileReader struct {
	filePath string
	logger   *zap.Logger
}

// NewFileReader creates a new FileReader instance
func NewFileReader(filePath string, logger *zap.Logger) *FileReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileReader{
		filePath: filePath,
		logger:   logger,
	}
}

// Path returns the file the reader loads from
func (r *FileReader) Path() string {
	return r.filePath
}

// LoadEvents reads the whole file and returns its events in file order.
// Either every event is returned or an error wrapping ErrNoFilename,
// ErrFileNotFound or ErrInvalidFile.
func (r *FileReader) LoadEvents() ([]calendar.Period, error) {
	if strings.TrimSpace(r.filePath) == "" {
		return nil, ErrNoFilename
	}

	info, err := os.Stat(r.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, r.filePath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, r.filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, r.filePath)
	}

	content, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidFile, r.filePath, err)
	}

	periods, err := ParseEvents(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}

	r.logger.Info("Calendar file loaded",
		zap.String("file", r.filePath),
		zap.Int("events", len(periods)))

	return periods, nil
}

// ParseEvents parses an iCalendar stream into periods in source order
func ParseEvents(reader io.Reader) ([]calendar.Period, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")) // UTF-8 BOM

	eventBlocks, err := checkStructure(content)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	events := cal.Events()
	if len(events) != eventBlocks {
		return nil, fmt.Errorf("%w: found %d VEVENT blocks but parsed %d events",
			ErrInvalidFile, eventBlocks, len(events))
	}

	periods := make([]calendar.Period, 0, len(events))
	for i, ev := range events {
		p, err := eventToPeriod(ev)
		if err != nil {
			return nil, fmt.Errorf("%w: event #%d: %v", ErrInvalidFile, i, err)
		}
		periods = append(periods, p)
	}

	return periods, nil
}

// checkStructure verifies the VCALENDAR wrapper and the VEVENT nesting.
// It returns the number of VEVENT blocks.
func checkStructure(content []byte) (int, error) {
	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return 0, fmt.Errorf("%w: empty content", ErrInvalidFile)
	}
	if !strings.EqualFold(strings.TrimSpace(lines[0]), "BEGIN:VCALENDAR") {
		return 0, fmt.Errorf("%w: missing BEGIN:VCALENDAR", ErrInvalidFile)
	}
	if !strings.EqualFold(strings.TrimSpace(lines[len(lines)-1]), "END:VCALENDAR") {
		return 0, fmt.Errorf("%w: missing END:VCALENDAR", ErrInvalidFile)
	}

	blocks := 0
	inEvent := false
	for n, line := range lines {
		switch {
		case strings.EqualFold(line, "BEGIN:VEVENT"):
			if inEvent {
				return 0, fmt.Errorf("%w: line %d: nested VEVENT", ErrInvalidFile, n+1)
			}
			inEvent = true
			blocks++
		case strings.EqualFold(line, "END:VEVENT"):
			if !inEvent {
				return 0, fmt.Errorf("%w: line %d: END:VEVENT without BEGIN", ErrInvalidFile, n+1)
			}
			inEvent = false
		}
	}
	if inEvent {
		return 0, fmt.Errorf("%w: unterminated VEVENT", ErrInvalidFile)
	}

	return blocks, nil
}
