package cmd

import (
	"github.com/sirupsen/logrus"
)

// newLogger builds the per-command logger. It inherits the level the
// shared Logger was configured with from LOG_LEVEL; --verbose raises it
// to debug.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(Logger.GetLevel())

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}
