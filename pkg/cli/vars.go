package cli

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/screen-expect/pkg/config"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

var varsCommand = &cli.Command{
	Name:      "vars",
	Usage:     "Show or delete persisted variables",
	ArgsUsage: "[key]...",
	Description: `Print the variables persisted by persistStoreAs, or only the named keys.

The database is persistence.path from config.yaml, falling back to
<home>/data/vars.db.

Examples:
  screen-expect vars
  screen-expect vars orderId
  screen-expect vars --delete orderId
  screen-expect vars --db ./vars.db`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to the persistence database",
		},
		&cli.StringFlag{
			Name:  "bucket",
			Usage: "Bucket name (default: " + vars.DefaultBucket + ")",
		},
		&cli.StringSliceFlag{
			Name:  "delete",
			Usage: "Delete this key (repeatable)",
		},
	},
	Action: runVars,
}

func runVars(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, bucket := varsLocation(c, cfg)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no persisted variables at %s", path)
		}
		return err
	}

	p, err := vars.OpenBolt(path, bucket)
	if err != nil {
		return err
	}
	defer p.Close()

	w := c.App.Writer
	if keys := c.StringSlice("delete"); len(keys) > 0 {
		for _, k := range keys {
			if err := p.Delete(k); err != nil {
				return err
			}
			fmt.Fprintf(w, "deleted %s\n", k)
		}
		return nil
	}

	values, err := p.Load()
	if err != nil {
		return err
	}
	if c.NArg() > 0 {
		selected := make(map[string]interface{}, c.NArg())
		for _, k := range c.Args().Slice() {
			v, ok := values[k]
			if !ok {
				return fmt.Errorf("%s is not persisted", k)
			}
			selected[k] = v
		}
		values = selected
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// varsLocation resolves the database path and bucket: flags first, then
// config, then the default path under the data dir.
func varsLocation(c *cli.Context, cfg *config.Config) (string, string) {
	path := c.String("db")
	if path == "" {
		path = cfg.PersistencePath()
	}
	if path == "" {
		path = config.DefaultVarsPath()
	}

	bucket := c.String("bucket")
	if bucket == "" {
		bucket = cfg.Persistence.Bucket
	}
	return path, bucket
}
