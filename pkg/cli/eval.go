package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/driver/mock"
	"github.com/devicelab-dev/screen-expect/pkg/executor"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/report"
)

var evalCommand = &cli.Command{
	Name:      "eval",
	Usage:     "Run expectation documents against a fixture screen",
	ArgsUsage: "<file-or-folder>...",
	Description: `Run one or more expectation documents against the screen described by
a fixture file. Documents run in order and share one variable store.

Test data is merged from, lowest priority first:
  1. values persisted by earlier runs (persistence.path in config.yaml)
  2. the --data file (YAML or JSON mapping)
  3. -e KEY=VALUE flags

Examples:
  screen-expect eval login.yaml --fixture login-screen.yaml
  screen-expect eval expectations/ --fixture app.yaml --data users.yaml
  screen-expect eval checkout.yaml --fixture app.yaml -e USER=ann --json
  screen-expect eval expectations/ --fixture app.yaml --output ./reports`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "fixture",
			Aliases:  []string{"f"},
			Usage:    "Fixture file describing the screen",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Test data file (YAML or JSON mapping)",
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Test data values (KEY=VALUE)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Force the element backend (auto, chained, eager)",
		},
		&cli.BoolFlag{
			Name:  "scripting",
			Usage: "Allow script bodies in custom-code blocks",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining documents after the first failure",
		},
		&cli.BoolFlag{
			Name:  "reset-between",
			Usage: "Clear stored variables before every document",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the run result as JSON instead of progress output",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Directory to write report.json into",
		},
	},
	Action: runEval,
}

func runEval(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one document file or folder is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.Bool("scripting") {
		cfg.Scripting = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogging(c, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	fixture, err := mock.LoadFixture(c.String("fixture"))
	if err != nil {
		return err
	}
	scr := fixture.Screen(mock.NewRecorder())

	docs, err := parseDocuments(c.Args().Slice())
	if err != nil {
		return err
	}

	persister, err := cfg.OpenPersister()
	if err != nil {
		return err
	}
	persisted := map[string]interface{}{}
	if persister != nil {
		defer persister.Close()
		opts.Persister = persister
		if persisted, err = persister.Load(); err != nil {
			return err
		}
	}

	testData, err := buildTestData(persisted, c.String("data"), c.StringSlice("env"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	jsonOut := c.Bool("json")
	if !jsonOut {
		opts.OnBlockEnd = func(br core.BlockResult) { printBlockEnd(w, br) }
	}

	var index *report.IndexWriter
	if dir := c.String("output"); dir != "" {
		skeleton := report.BuildSkeleton(docs, report.BuilderConfig{
			RunnerVersion: Version,
			Backend:       opts.Backend.String(),
			Fixture:       c.String("fixture"),
		})
		if err := report.WriteSkeleton(dir, skeleton); err != nil {
			return err
		}
		index = report.NewIndexWriter(dir, skeleton)
		index.Start()
	}

	runner := executor.NewRunner(executor.New(scr, opts), executor.RunnerConfig{
		StopOnFail:   c.Bool("stop-on-fail"),
		ResetBetween: c.Bool("reset-between"),
		OnDocumentStart: func(idx, total int, name string) {
			if index != nil {
				index.DocumentStart(idx)
			}
			if !jsonOut {
				printDocumentStart(w, idx, total, name)
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== eval started: %d document(s), fixture %s ===", len(docs), c.String("fixture"))
	result, err := runner.Run(ctx, docs, testData)
	if err != nil {
		return err
	}
	logger.Info("=== eval finished: %s (%d/%d passed) ===", result.Status, result.PassedDocuments, result.TotalDocuments)

	if index != nil {
		for i, d := range result.Documents {
			index.DocumentEnd(i, d.Result)
		}
		index.End()
		if err := index.Err(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	} else {
		printSummary(w, result)
	}

	if result.Status != core.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}

func parseDocuments(paths []string) ([]*expectation.Document, error) {
	files, err := collectDocuments(paths)
	if err != nil {
		return nil, err
	}
	docs := make([]*expectation.Document, 0, len(files))
	for _, f := range files {
		doc, err := expectation.ParseFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// buildTestData layers the data file and KEY=VALUE pairs over base.
func buildTestData(base map[string]interface{}, dataFile string, env []string) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(base))
	for k, v := range base {
		data[k] = v
	}

	if dataFile != "" {
		raw, err := os.ReadFile(dataFile) //#nosec G304 -- user-provided data file
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		var fromFile map[string]interface{}
		if err := yaml.Unmarshal(raw, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse data file %s: %w", dataFile, err)
		}
		for k, v := range fromFile {
			data[k] = v
		}
	}

	for k, v := range parseEnvVars(env) {
		data[k] = v
	}
	return data, nil
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
