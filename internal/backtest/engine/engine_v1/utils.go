package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

func getResultFolder(b *BacktestEngineV1, strategyName string, period int, dataPath string) string {
	periodFolder := filepath.Join(b.resultsFolder, strategyName, fmt.Sprintf("period_%d", period))

	var dataFolder string

	if b.config.StartTime.IsSome() || b.config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if b.config.StartTime.IsSome() {
			startTimeStr = b.config.StartTime.Unwrap().Format("20060102")
		}

		if b.config.EndTime.IsSome() {
			endTimeStr = b.config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(periodFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	} else {
		dataFolder = periodFolder
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(dataFolder, dataFileName)
}
