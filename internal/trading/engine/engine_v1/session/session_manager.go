package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-sma/internal/logger"
	"go.uber.org/zap"
)

var runPattern = regexp.MustCompile(`^run_(\d+)$`)

// SessionManager creates the result folder of a live run:
//
//	{dataOutputPath}/{symbol}/{YYYY-MM-DD}/run_N/
type SessionManager struct {
	dataOutputPath string
	runID          string
	runNumber      int
	sessionStart   time.Time
	currentRunPath string
	logger         *logger.Logger
}

// NewSessionManager creates a new SessionManager instance.
func NewSessionManager(log *logger.Logger) *SessionManager {
	return &SessionManager{
		dataOutputPath: "",
		runID:          "",
		runNumber:      0,
		sessionStart:   time.Time{},
		currentRunPath: "",
		logger:         log,
	}
}

// Initialize picks the next run number of the day for symbol and creates
// the run folder.
func (s *SessionManager) Initialize(dataOutputPath string, symbol string, sessionStart time.Time) error {
	s.dataOutputPath = dataOutputPath
	s.sessionStart = sessionStart

	datePath := filepath.Join(dataOutputPath, symbol, sessionStart.Format("2006-01-02"))

	runNumber, err := nextRunNumber(datePath)
	if err != nil {
		return fmt.Errorf("failed to determine run number: %w", err)
	}

	s.runNumber = runNumber
	s.runID = fmt.Sprintf("run_%d", runNumber)
	s.currentRunPath = filepath.Join(datePath, s.runID)

	if err := os.MkdirAll(s.currentRunPath, 0755); err != nil {
		return fmt.Errorf("failed to create run folder: %w", err)
	}

	s.logger.Info("Session initialized",
		zap.String("run_id", s.runID),
		zap.String("path", s.currentRunPath),
	)

	return nil
}

// nextRunNumber returns one more than the highest run_N folder in datePath.
func nextRunNumber(datePath string) (int, error) {
	entries, err := os.ReadDir(datePath)
	if os.IsNotExist(err) {
		return 1, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read date directory: %w", err)
	}

	maxRunNumber := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		matches := runPattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		num, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		maxRunNumber = max(maxRunNumber, num)
	}

	return maxRunNumber + 1, nil
}

// GetCurrentRunPath returns the current run folder path.
func (s *SessionManager) GetCurrentRunPath() string {
	return s.currentRunPath
}

// GetRunID returns the session run ID (e.g., "run_1").
func (s *SessionManager) GetRunID() string {
	return s.runID
}

func (s *SessionManager) GetRunNumber() int {
	return s.runNumber
}

func (s *SessionManager) GetSessionStart() time.Time {
	return s.sessionStart
}

// GetFilePath returns the full path for a file in the current run folder.
func (s *SessionManager) GetFilePath(filename string) string {
	return filepath.Join(s.currentRunPath, filename)
}
