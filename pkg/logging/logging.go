package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger is the logger to use in azdo-management.
// Command output goes to stdout, so logs always go to stderr.
var Logger = log.Logger{
	Out: os.Stderr,
	Formatter: &log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	},
	Hooks:        make(log.LevelHooks),
	Level:        log.InfoLevel,
	ExitFunc:     os.Exit,
	ReportCaller: false,
}

// SetLevel changes the level of Logger
func SetLevel(level log.Level) {
	Logger.SetLevel(level)
}
