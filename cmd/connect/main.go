// Package connect implements an interactive shell for inspecting a
// journal directory and running getLog queries against it.
package connect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/shvtools/shvjournal/chainpack"
	"github.com/shvtools/shvjournal/journal"
)

// Cmd is the connect command.
var Cmd = &cobra.Command{
	Use:     "connect",
	Short:   "Open an interactive shell on a journal directory",
	Example: "shvjournal connect --dir /var/shvjournal",
	RunE:    executeConnect,
}

var flagDir string

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&flagDir, "dir", "d", "", "journal directory")
	Cmd.MarkFlagRequired("dir")
}

func executeConnect(*cobra.Command, []string) error {
	jnl := journal.NewFileJournal("", nil)
	jnl.SetJournalDir(flagDir)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "shvjournal> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			printHelp()
		case "files":
			runFiles(jnl)
		case "recent":
			runRecent(jnl)
		case "getlog":
			runGetLog(jnl, args[1:])
		default:
			fmt.Printf("unknown command %q, try help\n", args[0])
		}
	}
}

func printHelp() {
	fmt.Print(`commands:
  files                          list journal files and their total size
  recent                         show the most recent entry timestamp
  getlog [since] [until] [glob]  query a range, instants in epoch msec
  exit
`)
}

func runFiles(jnl *journal.FileJournal) {
	ctx, err := jnl.CheckContext()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, msec := range ctx.Files {
		fmt.Println(journal.FileMsecToFileName(msec))
	}
	fmt.Printf("%d files, %d bytes total\n", len(ctx.Files), ctx.JournalSize)
}

func runRecent(jnl *journal.FileJournal) {
	ctx, err := jnl.CheckContext()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	dt := chainpack.FromMSecs(ctx.RecentTimeStamp)
	fmt.Printf("%d (%s)\n", ctx.RecentTimeStamp, dt.ToIsoString(chainpack.MsecAlways, true))
}

func runGetLog(jnl *journal.FileJournal, args []string) {
	params := journal.GetLogParams{WithSnapshot: true}
	if len(args) > 0 {
		msec, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("bad since:", err)
			return
		}
		if msec > 0 {
			params.Since = chainpack.NewDateTime(chainpack.FromMSecs(msec))
		}
	}
	if len(args) > 1 {
		msec, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Println("bad until:", err)
			return
		}
		if msec > 0 {
			params.Until = chainpack.NewDateTime(chainpack.FromMSecs(msec))
		}
	}
	if len(args) > 2 {
		params.PathPattern = args[2]
	}
	result, err := jnl.GetLog(&params)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, rec := range result.ToList() {
		fmt.Println(chainpack.ToCpon(rec))
	}
	header := journal.LogHeaderFromMetaData(result.Meta())
	fmt.Printf("%d records\n", header.RecordCount)
}
