package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/screen-expect/pkg/driver/mock"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
)

var lintCommand = &cli.Command{
	Name:      "lint",
	Usage:     "Check expectation documents without running them",
	ArgsUsage: "<file-or-folder>...",
	Description: `Parse every document and report unknown block types, operators and
check names, empty fields and duplicate block ids.

With --fixture, selectors and methods are also checked against the
members the fixture screen exposes.

Examples:
  screen-expect lint login.yaml
  screen-expect lint expectations/ --fixture app.yaml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "fixture",
			Usage: "Fixture screen to check member names against",
		},
	},
	Action: runLint,
}

func runLint(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one document file or folder is required")
	}

	var scr screen.Screen
	if path := c.String("fixture"); path != "" {
		fixture, err := mock.LoadFixture(path)
		if err != nil {
			return err
		}
		scr = fixture.Screen(mock.NewRecorder())
	}

	files, err := collectDocuments(c.Args().Slice())
	if err != nil {
		return err
	}

	w := c.App.Writer
	problems := 0
	for _, file := range files {
		doc, err := expectation.ParseFile(file)
		if err != nil {
			fmt.Fprintf(w, "%s✗%s %v\n", color(colorRed), color(colorReset), err)
			problems++
			continue
		}
		errs := expectation.Lint(doc, scr)
		for _, e := range errs {
			fmt.Fprintf(w, "%s✗%s %v\n", color(colorRed), color(colorReset), e)
		}
		problems += len(errs)
	}

	if problems > 0 {
		return cli.Exit(fmt.Sprintf("%d problem(s) in %d document(s)", problems, len(files)), 1)
	}
	fmt.Fprintf(w, "%s✓%s %d document(s) OK\n", color(colorGreen), color(colorReset), len(files))
	return nil
}

// collectDocuments expands files and folders into document paths.
func collectDocuments(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		found, err := expectation.CollectFiles(p)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", p, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents found in %v", paths)
	}
	return files, nil
}
