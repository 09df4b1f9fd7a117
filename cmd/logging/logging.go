package logging

import (
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
)

const DefaultLevel = "info"

// InitLogging sets the logrus formatter and level. An unparsable level falls
// back to info, and DEBUG=true forces debug.
func InitLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})

	if utils.DebugEnabled() {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Invalid log level %q, using %v", level, DefaultLevel)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
