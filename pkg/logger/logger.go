package logger

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Can be one of:
//   - Prod
//   - Dev
//   - Staging
type Environment int

const (
	_ Environment = iota
	Prod
	Dev
	Staging
)

func (e Environment) String() string {
	switch e {
	case Prod:
		return "prod"
	case Dev:
		return "dev"
	case Staging:
		return "staging"
	default:
		return "unknown"
	}
}

// ParseEnvironment maps "prod", "dev" or "staging" (any case) to an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Prod, nil
	case "dev", "development", "":
		return Dev, nil
	case "staging":
		return Staging, nil
	default:
		return 0, fmt.Errorf("logger: unknown environment %q", s)
	}
}

// NewLogger creates new slog.Logger writing JSON to stdout
func NewLogger(env Environment, addSource bool) *slog.Logger {
	return newLogger(os.Stdout, env, addSource)
}

func newLogger(w io.Writer, env Environment, addSource bool) *slog.Logger {
	level := slog.LevelDebug
	switch env {
	case Prod, Staging:
		level = slog.LevelInfo
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	})
	return slog.New(h)
}

// NewTestLogger returns a text logger writing into the returned buffer.
func NewTestLogger() (*bytes.Buffer, *slog.Logger) {
	b := &bytes.Buffer{}
	h := slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug})
	return b, slog.New(h)
}

func ErrAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
