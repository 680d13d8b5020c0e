package logflags

import (
	"errors"
	"io/ioutil"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var jdwpWire = false
var session = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// JDWPWire returns true if the jdwp package should log all the
// packets exchanged with the VM.
func JDWPWire() bool {
	return jdwpWire
}

// JDWPWireLogger returns a configured logger for the JDWP wire
// protocol.
func JDWPWireLogger() *logrus.Entry {
	return makeLogger(jdwpWire, logrus.Fields{"layer": "jdwpwire"})
}

// Session returns true if session lifecycle and demultiplexing
// decisions should be logged.
func Session() bool {
	return session
}

// SessionLogger returns a logger for the session layer.
func SessionLogger() *logrus.Entry {
	return makeLogger(session, logrus.Fields{"layer": "session"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "session"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "jdwpwire":
			jdwpWire = true
		case "session":
			session = true
		}
	}
	return nil
}
