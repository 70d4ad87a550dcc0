package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/britney/pkg/models"
)

// DefaultDir holds one log file per run
const DefaultDir = "britney_logs"

// RunLogger records the prompts, responses and errors of a single CLI run
type RunLogger struct {
	runID     string
	path      string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
	scrub     func(string) string
}

// StartRunLogging creates a log file for a new run under dir
func StartRunLogging(dir, command string) (*RunLogger, error) {
	if dir == "" {
		dir = DefaultDir
	}
	runID := uuid.NewString()

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.log", command, timestamp, runID[:8]))

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &RunLogger{
		runID:     runID,
		path:      logPath,
		logFile:   logFile,
		startTime: time.Now(),
	}
	logger.writeHeader(command)

	log.Debug().Str("run_id", runID).Str("path", logPath).Msg("Run log started")
	return logger, nil
}

// RunID identifies this run
func (r *RunLogger) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Path is the log file location
func (r *RunLogger) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// SetScrubber filters artifact text, responses and errors before they are
// written, typically to strip secrets
func (r *RunLogger) SetScrubber(scrub func(string) string) {
	if r == nil {
		return
	}
	r.scrub = scrub
}

func (r *RunLogger) clean(text string) string {
	if r == nil || r.scrub == nil {
		return text
	}
	return r.scrub(text)
}

// Log writes a message to the run log
func (r *RunLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(r.startTime)
	message := fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed.Round(time.Millisecond), fmt.Sprintf(format, args...))
	r.logFile.WriteString(message)
	r.logFile.Sync()
}

// LogSection writes a section header to the log
func (r *RunLogger) LogSection(title string) {
	separator := strings.Repeat("=", 80)
	r.Log("%s", separator)
	r.Log("= %s", title)
	r.Log("%s", separator)
}

// LogRequest records the messages sent for one artifact
func (r *RunLogger) LogRequest(model string, messages []models.ChatMessage) {
	r.LogSection(fmt.Sprintf("REQUEST to %s", model))
	for i, m := range messages {
		r.Log("[%d] %s (%d chars)", i, m.Role, len(m.Content))
		r.Log("%s", r.clean(m.Content))
	}
}

// LogResponse records the aggregated model response
func (r *RunLogger) LogResponse(response string) {
	r.LogSection("RESPONSE")
	r.Log("Length: %d chars", len(response))
	r.Log("%s", r.clean(response))
}

// LogError records a failure with its context
func (r *RunLogger) LogError(context string, err error) {
	r.Log("ERROR in %s: %s", context, r.clean(err.Error()))
}

// Close finalizes the log file
func (r *RunLogger) Close() {
	if r == nil {
		return
	}

	r.Log("Run finished in %v", time.Since(r.startTime).Round(time.Millisecond))

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile != nil {
		r.logFile.Close()
		r.logFile = nil
	}
}

func (r *RunLogger) writeHeader(command string) {
	r.LogSection(fmt.Sprintf("BRITNEY %s", strings.ToUpper(command)))
	r.Log("Run ID: %s", r.runID)
	r.Log("Started: %s", r.startTime.Format(time.RFC3339))
}
