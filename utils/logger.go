/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

// LogOptions controls every logger created by NewLogger, including the ones
// created before Configure was called.
type LogOptions struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	FileEnabled bool   `mapstructure:"file_enabled" yaml:"file_enabled"`
	FileDir     string `mapstructure:"file_dir" yaml:"file_dir"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

func DefaultLogOptions() LogOptions {
	return LogOptions{
		Level:       EnvDefaultString("LOG_LEVEL", "info"),
		Format:      EnvDefaultString("LOG_FORMAT", "text"),
		FileEnabled: EnvDefaultBool("FILE_LOG_ENABLED", false),
		FileDir:     "logs",
		MaxAgeDays:  7,
	}
}

var (
	registryMu    sync.RWMutex
	registry      = map[string]*logrus.Logger{}
	options       = DefaultLogOptions()
	consoleOutput = io.Writer(os.Stdout)
	errOutput     = io.Writer(os.Stderr)
)

// Configure applies opts to all registered loggers and to loggers created
// afterwards.
func Configure(opts LogOptions) error {
	if opts.FileDir == "" {
		opts.FileDir = "logs"
	}
	registryMu.Lock()
	options = opts
	loggers := make(map[string]*logrus.Logger, len(registry))
	for name, l := range registry {
		loggers[name] = l
	}
	registryMu.Unlock()

	for name, l := range loggers {
		if err := setup(l, name, opts); err != nil {
			return err
		}
	}
	logrus.SetLevel(ParseLogLevel(opts.Level))
	return nil
}

// SetConsoleOutput redirects console output of every logger.
func SetConsoleOutput(w io.Writer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	consoleOutput = w
	for _, l := range registry {
		l.SetOutput(w)
	}
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(consoleOutput)
	l.SetReportCaller(true)
	if err := setup(l, name, options); err != nil {
		// the logger still writes to the console
		fmt.Fprintf(errOutput, "logger %s: %v\n", name, err)
	}
	registry[name] = l
	return l
}

// LoggerNames lists registered loggers in name order.
func LoggerNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func SetLoggerLevel(name string, level string) bool {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(level))
	return true
}

func setup(l *logrus.Logger, name string, opts LogOptions) error {
	l.SetLevel(ParseLogLevel(opts.Level))
	l.SetFormatter(newFormatter(name, opts.Format, true))
	l.ReplaceHooks(make(logrus.LevelHooks))
	if !opts.FileEnabled {
		return nil
	}
	return AddDailyRollingFileHook(l, name, opts.FileDir, opts.MaxAgeDays, opts.Format)
}

func newFormatter(name, format string, console bool) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jColorFormatter{
		LoggerName:  name,
		Color:       console,
		NameWidth:   10,
		CallerWidth: 25,
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

type levelWriterHook struct {
	writers   map[logrus.Level]io.Writer
	formatter logrus.Formatter
}

func (h *levelWriterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelWriterHook) Fire(e *logrus.Entry) error {
	w, ok := h.writers[e.Level]
	if !ok {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// dailyLevelWriter writes to <dir>/<yyyy-mm-dd>/<level>.log and removes day
// directories older than maxAgeDays when the day rolls over.
type dailyLevelWriter struct {
	baseDir    string
	level      string
	maxAgeDays int
	now        func() time.Time

	mu      sync.Mutex
	curDate string
	file    *os.File
}

func (w *dailyLevelWriter) Write(p []byte) (int, error) {
	date := w.now().Format("2006-01-02")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil || w.curDate != date {
		if w.file != nil {
			_ = w.file.Close()
			w.file = nil
		}
		dir := filepath.Join(w.baseDir, date)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
		f, err := os.OpenFile(filepath.Join(dir, w.level+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		w.file = f
		w.curDate = date
		w.cleanup()
	}
	return w.file.Write(p)
}

func (w *dailyLevelWriter) cleanup() {
	if w.maxAgeDays <= 0 {
		return
	}
	cutoff := w.now().AddDate(0, 0, -w.maxAgeDays)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.Local)
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", e.Name(), time.Local)
		if err != nil || !d.Before(cutoff) {
			continue
		}
		_ = os.RemoveAll(filepath.Join(w.baseDir, e.Name()))
	}
}

// AddDailyRollingFileHook mirrors l into one file per level under dir.
// Fatal and panic entries go to the error file.
func AddDailyRollingFileHook(l *logrus.Logger, name, dir string, maxAgeDays int, format string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writers := make(map[logrus.Level]io.Writer, len(logrus.AllLevels))
	for _, lvl := range []logrus.Level{logrus.TraceLevel, logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel} {
		writers[lvl] = &dailyLevelWriter{baseDir: dir, level: lvl.String(), maxAgeDays: maxAgeDays, now: time.Now}
	}
	writers[logrus.FatalLevel] = writers[logrus.ErrorLevel]
	writers[logrus.PanicLevel] = writers[logrus.ErrorLevel]
	l.AddHook(&levelWriterHook{writers: writers, formatter: newFormatter(name, format, false)})
	return nil
}

// Log4jColorFormatter renders entries as
// "time LEVEL pid - [main] NAME caller : message key=value ...".
type Log4jColorFormatter struct {
	LoggerName  string
	Color       bool
	NameWidth   int
	CallerWidth int
}

var (
	faint   = color.New(color.Faint).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
)

var levelColors = map[logrus.Level]*color.Color{
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.TraceLevel: color.New(color.FgMagenta),
}

func (f *Log4jColorFormatter) paint(fn func(a ...interface{}) string, s string) string {
	if !f.Color {
		return s
	}
	return fn(s)
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	lvl := fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))
	if f.Color {
		lvl = levelColors[entry.Level].Sprint(lvl)
	}
	name := f.LoggerName
	if f.NameWidth > 0 {
		if r := []rune(name); len(r) > f.NameWidth {
			name = string(r[:f.NameWidth])
		}
		name = fmt.Sprintf("%*s", f.NameWidth, name)
	}

	caller := ""
	if entry.Caller != nil {
		caller = callerPath(entry.Caller.File, entry.Caller.Line, f.CallerWidth)
		if f.CallerWidth > 0 {
			caller = fmt.Sprintf("%*s", f.CallerWidth, caller)
		}
		caller = " " + f.paint(faint, caller)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s - %s %s%s %s %s",
		entry.Time.Format(timestampFormat),
		lvl,
		f.paint(magenta, fmt.Sprintf("%-6d", os.Getpid())),
		f.paint(magenta, "[main]"),
		f.paint(cyan, name),
		caller,
		f.paint(faint, ":"),
		entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter renders one JSON object per line. HTTP access fields are
// lifted to the top level; everything else goes under "fields".
type JSONLogFormatter struct {
	LoggerName string
}

type jsonLogRecord struct {
	Time       string                 `json:"time"`
	Level      string                 `json:"level"`
	Logger     string                 `json:"logger"`
	Caller     string                 `json:"caller,omitempty"`
	Message    string                 `json:"message"`
	RequestID  string                 `json:"request_id,omitempty"`
	ClientIP   string                 `json:"client_ip,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Latency    string                 `json:"latency,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = callerPath(entry.Caller.File, entry.Caller.Line, 0)
	}

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		s, isString := v.(string)
		switch {
		case k == "request_id" && isString:
			rec.RequestID = s
		case k == "client_ip" && isString:
			rec.ClientIP = s
		case k == "method" && isString:
			rec.Method = s
		case k == "path" && isString:
			rec.Path = s
		case k == "latency" && isString:
			rec.Latency = s
		case k == "status":
			if n, ok := v.(int); ok {
				rec.StatusCode = n
			} else {
				extra[k] = v
			}
		case k == logrus.ErrorKey:
			if err, ok := v.(error); ok {
				extra[k] = err.Error()
			} else {
				extra[k] = v
			}
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(m logrus.Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// callerPath shortens file to "pkg.file.go:line", collapsing directory names
// to their first letter while the result is wider than width.
func callerPath(file string, line, width int) string {
	parts := strings.Split(filepath.ToSlash(file), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	suffix := ":" + strconv.Itoa(line)
	out := strings.Join(parts, ".") + suffix
	for i := 0; width > 0 && len(out) > width && i < len(parts)-1; i++ {
		if r := []rune(parts[i]); len(r) > 1 {
			parts[i] = string(r[0])
		}
		out = strings.Join(parts, ".") + suffix
	}
	return out
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func EnvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}
	return def
}
