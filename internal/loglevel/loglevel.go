// Package loglevel adapts the front end's "-m {f|e|w|i|d}" flag letter
// to a logrus level and installs a stderr text formatter.
package loglevel

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Letters understood by the "-m" flag, from most to least severe.
const (
	Fatal  = "f"
	Error  = "e"
	Warn   = "w"
	Info   = "i"
	Debug  = "d"
)

// New builds a logger at the level named by letter, writing
// TextFormatter-formatted lines to stderr.
func New(letter string) (*logrus.Logger, error) {
	lvl, err := parse(letter)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

func parse(letter string) (logrus.Level, error) {
	switch letter {
	case Fatal:
		return logrus.FatalLevel, nil
	case Error:
		return logrus.ErrorLevel, nil
	case Warn:
		return logrus.WarnLevel, nil
	case Info, "":
		return logrus.InfoLevel, nil
	case Debug:
		return logrus.DebugLevel, nil
	default:
		return 0, fmt.Errorf("loglevel: unknown level %q, want one of f/e/w/i/d", letter)
	}
}
