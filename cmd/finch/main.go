/*
 * Copyright (c) 2026 The FinchDB Authors
 *
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

/*
Package main is the entry point for the FinchDB interactive shell.

FinchDB Shell Overview:
=======================

finch is an interactive REPL (Read-Eval-Print Loop) that works against a
local FinchDB data directory. SQL statements are lexed and parsed by the
finchdb SQL pipeline; the shell prints the resulting syntax tree and the
statement reconstructed from it, and runs table-level operations (CREATE
TABLE, DROP TABLE) against the page store.

Command Types:
==============

 1. SQL statements, terminated by a semicolon. Multi-line input is
    accumulated until the terminating semicolon.

 2. Local commands (prefixed with \):
    - \q or \quit          : Exit the shell
    - \h or \help          : Display help
    - \dt                  : List tables in the data directory
    - \backup <tbl> <file> : Write a compressed snapshot of a table
    - \restore <tbl> <file>: Restore a table from a snapshot
    - \config              : Show the active configuration

Usage Examples:
===============

	Start with the default data directory:
	  finch

	Start against a specific directory with debug logging:
	  finch --data-dir /tmp/finch --log-level debug

	Example session:
	  finch> CREATE TABLE users (id INT PRIMARY KEY, name TEXT);
	  CREATE TABLE OK
	  finch> SELECT name FROM users WHERE id = 1 OR active;
	  SELECT name FROM users WHERE id = 1 OR active = TRUE
	  ...

Parse errors are reported with the offending position:

	finch> SELECT * FROM users WHERE (id = 1;
	ERROR: unmatched parenthesis ('(' is never closed) at line 1, col 27
*/
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"finchdb/internal/banner"
	"finchdb/internal/config"
	"finchdb/internal/errors"
	"finchdb/internal/logging"
	"finchdb/internal/sql"
	"finchdb/internal/storage"
)

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// completions contains all completable keywords for tab completion,
// synchronized with the lexer's keyword list.
var completions = []string{
	// Local commands
	"\\q", "\\quit", "\\h", "\\help", "\\dt", "\\backup", "\\restore", "\\config",
	// Statement keywords
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP",
	// Clause keywords
	"FROM", "WHERE", "AND", "OR", "NOT", "IS", "NULL", "IN",
	"ORDER", "BY", "ASC", "DESC", "LIMIT", "OFFSET",
	"INTO", "VALUES", "SET", "TABLE",
	"TRUE", "FALSE",
	// Data types and constraints
	"INT", "INTEGER", "TEXT", "BOOLEAN", "FLOAT", "DECIMAL",
	"PRIMARY", "KEY", "UNIQUE",
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(completions))
	for _, kw := range completions {
		items = append(items, readline.PcItem(kw))
	}
	return readline.NewPrefixCompleter(items...)
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}

// shell holds the REPL session state.
type shell struct {
	cfg   *config.Config
	pager *storage.Pager
	out   io.Writer
	log   *logging.Logger
}

func main() {
	cmd := &cli.Command{
		Name:  "finch",
		Usage: "interactive FinchDB SQL shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "directory for table files",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit logs as JSON",
			},
			&cli.StringFlag{
				Name:    "execute",
				Aliases: []string{"e"},
				Usage:   "execute one statement and exit",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "finch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	mgr := config.Global()
	if path := cmd.String("config"); path != "" {
		if err := mgr.LoadFromFile(path); err != nil {
			return err
		}
		mgr.LoadFromEnv()
	} else if err := mgr.Load(); err != nil {
		return err
	}

	cfg := mgr.Get()
	// Flags override file and environment.
	if v := cmd.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if cmd.Bool("log-json") {
		cfg.LogJSON = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	mgr.Set(cfg)

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)

	enc, err := storage.NewEncryptor(storage.EncryptionConfig{
		Enabled:    cfg.EncryptionEnabled,
		Passphrase: cfg.EncryptionPassphrase,
	})
	if err != nil {
		return err
	}
	pager, err := storage.NewPager(cfg.DataDir, enc)
	if err != nil {
		return err
	}

	sh := &shell{
		cfg:   cfg,
		pager: pager,
		out:   os.Stdout,
		log:   logging.NewLogger("shell"),
	}

	if stmt := cmd.String("execute"); stmt != "" {
		sh.handleStatement(stmt)
		return nil
	}

	if isTerminal() {
		return sh.runInteractive()
	}
	return sh.runPiped(os.Stdin)
}

// runInteractive runs the readline-based REPL.
func (s *shell) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "finch> ",
		HistoryFile:         s.cfg.HistoryFile,
		AutoComplete:        createCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "\\q",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	banner.PrintShellWithConfig(s.out, s.cfg)
	fmt.Fprintf(s.out, "Type \\h for help, \\q to quit.\n")
	s.log.Info("Session started", "data_dir", s.cfg.DataDir)

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl-C drops any partial statement.
			pending.Reset()
			rl.SetPrompt("finch> ")
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(s.out, "bye")
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if pending.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "\\") {
				if quit := s.handleLocal(trimmed); quit {
					fmt.Fprintln(s.out, "bye")
					return nil
				}
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		if !strings.HasSuffix(trimmed, ";") {
			rl.SetPrompt("   ... ")
			continue
		}

		s.handleStatement(pending.String())
		pending.Reset()
		rl.SetPrompt("finch> ")
	}
}

// runPiped reads statements from a non-terminal stdin, for use in
// scripts and pipes.
func (s *shell) runPiped(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var pending strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if pending.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "\\") {
				if quit := s.handleLocal(trimmed); quit {
					return nil
				}
				continue
			}
		}
		pending.WriteString(line)
		pending.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			s.handleStatement(pending.String())
			pending.Reset()
		}
	}
	if pending.Len() > 0 {
		s.handleStatement(pending.String())
	}
	return scanner.Err()
}

// handleLocal runs a backslash command. Returns true when the shell
// should exit.
func (s *shell) handleLocal(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "\\q", "\\quit":
		return true
	case "\\h", "\\help":
		s.printHelp()
	case "\\dt":
		s.listTables()
	case "\\backup":
		if len(fields) != 3 {
			fmt.Fprintln(s.out, "usage: \\backup <table> <file>")
			break
		}
		if err := s.pager.BackupTable(fields[1], fields[2]); err != nil {
			fmt.Fprintln(s.out, errors.FormatError(err))
			break
		}
		fmt.Fprintf(s.out, "table %q backed up to %s\n", fields[1], fields[2])
	case "\\restore":
		if len(fields) != 3 {
			fmt.Fprintln(s.out, "usage: \\restore <table> <file>")
			break
		}
		if err := s.pager.RestoreTable(fields[1], fields[2]); err != nil {
			fmt.Fprintln(s.out, errors.FormatError(err))
			break
		}
		fmt.Fprintf(s.out, "table %q restored from %s\n", fields[1], fields[2])
	case "\\config":
		fmt.Fprint(s.out, s.cfg.String())
	default:
		fmt.Fprintf(s.out, "unknown command %s (try \\h)\n", fields[0])
	}
	return false
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Local commands:
  \q, \quit            exit the shell
  \h, \help            show this help
  \dt                  list tables
  \backup <tbl> <file> write a compressed table snapshot
  \restore <tbl> <file> restore a table from a snapshot
  \config              show the active configuration

SQL statements end with a semicolon and may span multiple lines:
  CREATE TABLE t (id INT PRIMARY KEY, name TEXT);
  SELECT * FROM t WHERE id IN (1, 2, 3) ORDER BY id;
`)
}

// listTables prints every table file in the data directory with its
// page count.
func (s *shell) listTables() {
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		fmt.Fprintf(s.out, "cannot read data directory: %v\n", err)
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tbl") {
			names = append(names, strings.TrimSuffix(e.Name(), ".tbl"))
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no tables")
		return
	}
	sort.Strings(names)
	for _, name := range names {
		count, err := s.pager.PageCount(name)
		if err != nil {
			fmt.Fprintf(s.out, "  %s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Fprintf(s.out, "  %s (%d pages)\n", name, count)
	}
}

// handleStatement parses one SQL statement and acts on it.
func (s *shell) handleStatement(input string) {
	sc := logging.NewStatementContext(input)

	stmt, err := sql.NewParser(sql.NewLexer(input)).Parse()
	if err != nil {
		fmt.Fprintln(s.out, errors.FormatError(err))
		sc.LogError(s.log, err.Error())
		return
	}

	switch st := stmt.(type) {
	case *sql.CreateTableStmt:
		s.execCreateTable(st)
	case *sql.DropTableStmt:
		s.execDropTable(st)
	case *sql.SelectStmt:
		fmt.Fprintln(s.out, st.String())
		s.dumpWhere(st.Where)
	case *sql.InsertStmt:
		fmt.Fprintf(s.out, "parsed INSERT into %q (%d values)\n", st.Table, len(st.Values))
	case *sql.UpdateStmt:
		fmt.Fprintf(s.out, "parsed UPDATE of %q (%d assignments)\n", st.Table, len(st.Assignments))
		s.dumpWhere(st.Where)
	case *sql.DeleteStmt:
		fmt.Fprintf(s.out, "parsed DELETE from %q\n", st.Table)
		s.dumpWhere(st.Where)
	}
	sc.LogComplete(s.log)
}

// execCreateTable creates the table file with one empty page so the
// table shows up in \dt.
func (s *shell) execCreateTable(st *sql.CreateTableStmt) {
	count, err := s.pager.PageCount(st.Table)
	if err == nil && count > 0 {
		fmt.Fprintf(s.out, "table %q already exists\n", st.Table)
		return
	}
	if _, err := s.pager.AppendPage(st.Table, storage.NewPage()); err != nil {
		fmt.Fprintln(s.out, errors.FormatError(err))
		return
	}
	fmt.Fprintln(s.out, "CREATE TABLE OK")
}

func (s *shell) execDropTable(st *sql.DropTableStmt) {
	if err := s.pager.DropTable(st.Table); err != nil {
		fmt.Fprintln(s.out, errors.FormatError(err))
		return
	}
	fmt.Fprintln(s.out, "DROP TABLE OK")
}

// dumpWhere prints the condition tree of a WHERE clause, one node per
// line with indentation showing structure.
func (s *shell) dumpWhere(cond sql.Condition) {
	if cond == nil {
		return
	}
	fmt.Fprintln(s.out, "WHERE tree:")
	s.dumpCondition(cond, 1)
}

func (s *shell) dumpCondition(cond sql.Condition, depth int) {
	indent := strings.Repeat("  ", depth)
	switch c := cond.(type) {
	case sql.LogicalCondition:
		fmt.Fprintf(s.out, "%s%s\n", indent, c.Op)
		s.dumpCondition(c.Left, depth+1)
		s.dumpCondition(c.Right, depth+1)
	case sql.GroupCondition:
		fmt.Fprintf(s.out, "%s(group)\n", indent)
		s.dumpCondition(c.Inner, depth+1)
	default:
		fmt.Fprintf(s.out, "%s%s\n", indent, cond)
	}
}
