package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/activitystats/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 10
	sentryFlushWait   = 2 * time.Second
)

type LoggerSetupParams struct {
	// LogFileName is the rotated log file; ".log" is appended when missing.
	// Empty means stdout only.
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	// rotation, zero values take the defaults above
	MaxSizeMB  int
	MaxBackups int
	// Fields are added to every entry, e.g. the service name when several
	// binaries write to the same collector.
	Fields logrus.Fields

	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the package level logrus logger. The returned func flushes
// sentry and closes the log file; call it on shutdown.
func Setup(params LoggerSetupParams) func() {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if len(params.Fields) > 0 {
		logrus.AddHook(&fieldsHook{fields: params.Fields})
	}

	sentryEnabled := params.SentryEnabled && setupSentry(params)

	var logFile *lumberjack.Logger
	if params.LogFileName != "" {
		logFile = rotatedFile(params)
	}
	logrus.SetOutput(output(logFile, params.LogToStdout))

	switch {
	case logFile == nil:
		logrus.Infoln("logging to stdout")
	case params.LogToStdout:
		logrus.Infof("logging to [%s] and stdout", logFile.Filename)
	default:
		logrus.Infof("logging to [%s]", logFile.Filename)
	}

	return func() {
		if sentryEnabled && !sentry.Flush(sentryFlushWait) {
			logrus.Warnln("sentry flush timed out, some events may be lost")
		}
		if logFile == nil {
			return
		}
		logrus.SetOutput(os.Stdout)
		if err := logFile.Close(); err != nil {
			logrus.Errorf("close log file [%s]: %s", logFile.Filename, err)
		}
	}
}

func setupSentry(params LoggerSetupParams) bool {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry init: %s", err)
		return false
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Debugf("sentry enabled, env [%s]", params.Environment)
	return true
}

func rotatedFile(params LoggerSetupParams) *lumberjack.Logger {
	fileName := params.LogFileName
	if filepath.Ext(fileName) != ".log" {
		fileName += ".log"
	}

	maxSize := params.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := params.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

func output(logFile *lumberjack.Logger, alsoStdout bool) io.Writer {
	if logFile == nil {
		return os.Stdout
	}
	if alsoStdout {
		return pkg.NewCombinedWriter(os.Stdout, logFile)
	}
	return logFile
}

// GetLevel parses a logrus level name, anything unknown or empty logs everything.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.TraceLevel
	}
	return parsed
}

// fieldsHook stamps fixed fields on every entry without overriding ones set
// at the call site.
type fieldsHook struct {
	fields logrus.Fields
}

func (h *fieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, set := entry.Data[k]; !set {
			entry.Data[k] = v
		}
	}
	return nil
}
