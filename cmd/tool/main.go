// Package tool bundles maintenance commands: legacy journal conversion
// and CSV export.
package tool

import (
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/shvtools/shvjournal/chainpack"
	"github.com/shvtools/shvjournal/journal"
	"github.com/shvtools/shvjournal/utils/log"
)

// Cmd is the parent tool command.
var Cmd = &cobra.Command{
	Use:     "tool",
	Short:   "Journal maintenance tools",
	Example: "shvjournal tool convert --dir /var/shvjournal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	},
}

var (
	flagDir         string
	flagSince       int64
	flagUntil       int64
	flagPathPattern string
	flagOut         string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert legacy .log journal files to the .log2 format",
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl := journal.NewFileJournal("", nil)
		jnl.SetJournalDir(flagDir)
		jnl.ConvertLog1Dir()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export a journal time range as CSV",
	Example: "shvjournal tool export --dir /var/shvjournal --since 1577880000000 --out out.csv",
	RunE:    executeExport,
}

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	convertCmd.Flags().StringVarP(&flagDir, "dir", "d", "", "journal directory")
	convertCmd.MarkFlagRequired("dir")
	exportCmd.Flags().StringVarP(&flagDir, "dir", "d", "", "journal directory")
	exportCmd.MarkFlagRequired("dir")
	exportCmd.Flags().Int64Var(&flagSince, "since", 0, "start instant, epoch milliseconds")
	exportCmd.Flags().Int64Var(&flagUntil, "until", 0, "end instant (exclusive), epoch milliseconds")
	exportCmd.Flags().StringVar(&flagPathPattern, "path-pattern", "", "glob filter on entry paths")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file, stdout when unset")
	Cmd.AddCommand(convertCmd)
	Cmd.AddCommand(exportCmd)
}

// csvRecord is one exported journal row.
type csvRecord struct {
	Timestamp string `csv:"timestamp"`
	Path      string `csv:"path"`
	Value     string `csv:"value"`
	ShortTime string `csv:"shortTime"`
	Domain    string `csv:"domain"`
}

func executeExport(*cobra.Command, []string) error {
	jnl := journal.NewFileJournal("", nil)
	jnl.SetJournalDir(flagDir)
	params := journal.GetLogParams{
		PathPattern:  flagPathPattern,
		WithSnapshot: true,
	}
	if flagSince > 0 {
		params.Since = chainpack.NewDateTime(chainpack.FromMSecs(flagSince))
	}
	if flagUntil > 0 {
		params.Until = chainpack.NewDateTime(chainpack.FromMSecs(flagUntil))
	}
	result, err := jnl.GetLog(&params)
	if err != nil {
		log.Error("getLog failed: %v", err)
		return err
	}

	rows := make([]csvRecord, 0, len(result.ToList()))
	for _, rec := range result.ToList() {
		fields := rec.ToList()
		if len(fields) < 5 {
			continue
		}
		row := csvRecord{
			Timestamp: fields[0].ToDateTime().ToIsoString(chainpack.MsecAlways, true),
			Path:      fields[1].ToString(),
			Value:     chainpack.ToCpon(fields[2]),
			Domain:    fields[4].ToString(),
		}
		if fields[3].IsInt() {
			row.ShortTime = strconv.FormatInt(fields[3].ToInt(), 10)
		}
		rows = append(rows, row)
	}

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return gocsv.Marshal(&rows, out)
}
