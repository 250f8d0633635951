// Package shell is an interactive readline prompt over loaded tables.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/ednadash/engine"
)

// ErrQuit is returned by Exec for \q, quit and exit.
var ErrQuit = errors.New("quit")

var errUsage = errors.New("usage")

const helpText = `commands:
  show                    print the current page
  search <term>           search all columns (no term clears)
  filter <col> <value>    substring filter on a column
  unfilter <col>          remove a column filter
  clear                   remove search and filters
  sort <col> [asc|desc]   sort by column; without a direction flips it
  sort off                restore input order
  page <n> | next | prev  move between pages
  size <n>                rows per page
  values <col>            distinct values of a column
  cols                    list columns
  tables                  list tables
  use <table>             switch table
  export <file>           write the filtered view as CSV
  \help                   show help
  \q | quit | exit        quit`

// Session holds the tables a shell works on. Every command that changes
// the view prints the new page.
type Session struct {
	tables  map[string]*engine.Table
	current string
	logger  zerolog.Logger
}

// NewSession starts on the first table name in sorted order unless start
// names one.
func NewSession(tables map[string]*engine.Table, start string) (*Session, error) {
	if len(tables) == 0 {
		return nil, errors.New("shell: no tables loaded")
	}
	s := &Session{tables: tables, logger: log.Logger.With().Str("component", "shell").Logger()}
	if _, ok := tables[start]; ok {
		s.current = start
	} else {
		s.current = s.names()[0]
	}
	return s, nil
}

// Current returns the active table name and table.
func (s *Session) Current() (string, *engine.Table) {
	return s.current, s.tables[s.current]
}

// Exec runs one command line and returns what to print.
func (s *Session) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	t := s.tables[s.current]

	switch strings.ToLower(cmd) {
	case `\q`, "quit", "exit":
		return "", ErrQuit
	case `\help`, "help", "?":
		return helpText, nil
	case "show":
	case "search":
		t.Search(rest)
	case "filter":
		key, value, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%w: filter <col> <value>", errUsage)
		}
		if err := s.checkColumn(key); err != nil {
			return "", err
		}
		t.Filter(key, strings.TrimSpace(value))
	case "unfilter":
		if rest == "" {
			return "", fmt.Errorf("%w: unfilter <col>", errUsage)
		}
		t.Unfilter(rest)
	case "clear":
		t.Search("")
		t.ClearFilters()
	case "sort":
		key, dirArg, hasDir := strings.Cut(rest, " ")
		if key == "" {
			return "", fmt.Errorf("%w: sort <col> [asc|desc] | sort off", errUsage)
		}
		if key == "off" {
			t.Dispatch(engine.TableState.WithoutSort)
			break
		}
		if err := s.checkColumn(key); err != nil {
			return "", err
		}
		if !hasDir {
			t.ToggleSort(key)
			break
		}
		dir, ok := engine.ParseDirection(dirArg)
		if !ok {
			return "", fmt.Errorf("%w: sort <col> [asc|desc]", errUsage)
		}
		t.SortBy(key, dir)
	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return "", fmt.Errorf("%w: page <n>", errUsage)
		}
		t.GoToPage(n)
	case "next":
		t.NextPage()
	case "prev":
		t.PrevPage()
	case "size":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return "", fmt.Errorf("%w: size <n>", errUsage)
		}
		if err := t.SetItemsPerPage(n); err != nil {
			return "", err
		}
	case "values":
		if rest == "" {
			return "", fmt.Errorf("%w: values <col>", errUsage)
		}
		if err := s.checkColumn(rest); err != nil {
			return "", err
		}
		return s.values(rest), nil
	case "cols":
		return s.columns(), nil
	case "tables":
		return s.listTables(), nil
	case "use":
		if _, ok := s.tables[rest]; !ok {
			return "", fmt.Errorf("unknown table %q (have %s)", rest, strings.Join(s.names(), ", "))
		}
		s.current = rest
	case "export":
		if rest == "" {
			return "", fmt.Errorf("%w: export <file>", errUsage)
		}
		return s.export(rest)
	default:
		return "", fmt.Errorf("unknown command: %s (try \\help)", cmd)
	}

	return s.render()
}

func (s *Session) render() (string, error) {
	data, err := s.tables[s.current].Build(s.current)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := engine.WriteText(&b, data); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Session) checkColumn(key string) error {
	if _, ok := s.tables[s.current].Schema().Column(key); !ok {
		return fmt.Errorf("%w: %q", engine.ErrUnknownColumn, key)
	}
	return nil
}

func (s *Session) columns() string {
	var b strings.Builder
	for _, c := range s.tables[s.current].Schema().Columns {
		var flags []string
		if c.Sortable {
			flags = append(flags, "sortable")
		}
		if c.Filterable {
			flags = append(flags, "filterable")
		}
		fmt.Fprintf(&b, "%-24s %-8s %s\n", c.Key, c.Kind, strings.Join(flags, ","))
	}
	return strings.TrimRight(b.String(), "\n")
}

// values lists distinct values of key over the unfiltered table, so a
// filter never hides the choices.
func (s *Session) values(key string) string {
	vals := engine.UniqueValues(s.tables[s.current].Source(), key)
	if len(vals) == 0 {
		return engine.NoDataText
	}
	return strings.Join(vals, "\n")
}

func (s *Session) listTables() string {
	names := s.names()
	for i, n := range names {
		if n == s.current {
			names[i] = "* " + n
		} else {
			names[i] = "  " + n
		}
	}
	return strings.Join(names, "\n")
}

func (s *Session) export(path string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := s.tables[s.current].Export(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	s.logger.Info().Str("table", s.current).Str("file", path).Msg("exported")
	return "wrote " + path, nil
}

func (s *Session) names() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config is the readline setup for Run.
type Config struct {
	Prompt      string
	HistoryFile string
}

// Run reads commands until quit or EOF. Ctrl+C on an empty line is
// ignored; command errors are printed and the loop continues.
func Run(s *Session, cfg Config, out io.Writer) error {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "ednadash> "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	if page, err := s.render(); err == nil {
		fmt.Fprintln(out, page)
	}
	fmt.Fprintln(out, `type \help for help`)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := s.Exec(line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if res != "" {
			fmt.Fprintln(out, res)
		}
	}
}
