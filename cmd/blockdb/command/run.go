// Package command holds the mitchellh/cli commands the blockdb binary
// exposes.
package command

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/config"
	"github.com/arjenvanzwam/blockdb/internal/interpret"
	"github.com/arjenvanzwam/blockdb/internal/loglevel"
)

// RunCommand reads the command language from -c FILE (or stdin) and
// executes it against a database rooted at -d DIR.
type RunCommand struct{}

func (c *RunCommand) Help() string {
	helpText := `
Usage: blockdb run [options]

Options:

  -m {f|e|w|i|d}  set log level (default i)
  -d DIR          database directory (default ./tests/testfront)
  -c FILE         command script (default stdin)
  -config FILE    optional YAML config supplying dir/pool_pages/max_open_files
`
	return strings.TrimSpace(helpText)
}

func (c *RunCommand) Synopsis() string {
	return "Runs the command-language interpreter against a block-paged database"
}

func (c *RunCommand) Run(args []string) int {
	var logLevel, dir, cmdFile, configFile string

	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.StringVar(&logLevel, "m", "", "log level")
	flags.StringVar(&dir, "d", "", "database directory")
	flags.StringVar(&cmdFile, "c", "", "command script")
	flags.StringVar(&configFile, "config", "", "config file")
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err.Error())
		return 1
	}
	if dir == "" {
		dir = cfg.Dir
	}
	if dir == "" {
		dir = "./tests/testfront"
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if logLevel == "" {
		logLevel = loglevel.Info
	}

	logger, err := loglevel.New(logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}

	poolPages := cfg.PoolPages
	if poolPages <= 0 {
		poolPages = catalog.DefaultPoolPages
	}
	maxOpenFiles := cfg.MaxOpenFiles
	if maxOpenFiles <= 0 {
		maxOpenFiles = catalog.DefaultMaxOpenFiles
	}

	db, err := catalog.OpenDB(dir, poolPages, maxOpenFiles, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error opening database: %s\n", err.Error())
		return 1
	}
	defer func() {
		if err := catalog.CloseDB(db); err != nil {
			logger.Error(err)
		}
	}()

	var input io.Reader = os.Stdin
	if cmdFile != "" {
		f, err := os.Open(cmdFile)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error opening command file: %s\n", err.Error())
			return 1
		}
		defer f.Close()
		input = f
	}

	sess := interpret.NewSession(db)
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		rs, err := sess.Execute(line)
		if err == interpret.ErrQuit {
			return 0
		}
		if err != nil {
			continue
		}
		if rs != nil {
			fmt.Print(rs.Render())
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Errorf("input error: %s", err.Error())
	}
	return 0
}
