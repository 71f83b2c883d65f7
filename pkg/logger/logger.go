package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the application logger. Development gets the human-readable
// console writer, everything else plain JSON on stdout.
func New(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
