package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func reembedTestApp() *cli.App {
	return &cli.App{
		Name: "topiary",
		Commands: []*cli.Command{
			{
				Name:   "reembed",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Value: 3,
					},
				},
			},
		},
	}
}

func intFlagValue(t *testing.T, cmd *cli.Command, name string) int {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("flag %q not found", name)
	return 0
}

func TestReembedCommandFlags(t *testing.T) {
	app := reembedTestApp()

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		assert.Equal(t, 100, intFlagValue(t, app.Commands[0], "batch-size"))
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		assert.Equal(t, 100, intFlagValue(t, app.Commands[0], "report-interval"))
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		assert.Equal(t, 3, intFlagValue(t, app.Commands[0], "max-retries"))
	})
}

func TestReembedCommandValidation(t *testing.T) {
	app := reembedTestApp()

	t.Run("zero batch-size fails", func(t *testing.T) {
		err := app.Run([]string{"topiary", "reembed", "--db", t.TempDir(), "--batch-size", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("negative report-interval fails", func(t *testing.T) {
		err := app.Run([]string{"topiary", "reembed", "--db", t.TempDir(), "--report-interval", "-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report-interval")
	})

	t.Run("zero max-retries fails", func(t *testing.T) {
		err := app.Run([]string{"topiary", "reembed", "--db", t.TempDir(), "--max-retries", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})
}

func TestIngestCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "topiary",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Required: true,
					},
					&cli.StringSliceFlag{
						Name: "text",
					},
				},
			},
		},
	}

	t.Run("missing topic flag fails", func(t *testing.T) {
		err := app.Run([]string{"topiary", "ingest", "--db", t.TempDir(), "somefile.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "topic")
	})

	t.Run("no inputs fails before opening the database", func(t *testing.T) {
		err := app.Run([]string{"topiary", "ingest", "--topic", "notes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to ingest")
	})
}

func TestSearchCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "topiary",
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
		},
	}

	t.Run("empty query fails before opening the database", func(t *testing.T) {
		err := app.Run([]string{"topiary", "search"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})
}

func TestSetupLogger(t *testing.T) {
	loggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := loggerApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := loggerApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := loggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := loggerApp()
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
