// Package start implements the daemon command: it wires the journal,
// the snapshot cache and the HTTP frontend together.
package start

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/shvtools/shvjournal/frontend"
	"github.com/shvtools/shvjournal/frontend/stream"
	"github.com/shvtools/shvjournal/journal"
	"github.com/shvtools/shvjournal/utils"
	"github.com/shvtools/shvjournal/utils/log"
)

const (
	usage                 = "start"
	short                 = "Start a shvjournal daemon"
	long                  = "This command starts a shvjournal daemon serving append and getLog over HTTP"
	example               = "shvjournal start --config <path>"
	defaultConfigFilePath = "./shvjournal.yml"
	configDesc            = "set the path for the shvjournal YAML configuration file"
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"boot", "up"},
		Example:    example,
		RunE:       executeStart,
	}
	// configFilePath set flag for a path to the config file.
	configFilePath string
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
}

// executeStart implements the start command.
func executeStart(*cobra.Command, []string) error {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		log.Error("failed to read configuration file %s: %v", configFilePath, err)
		return err
	}
	cfg := utils.Config{}
	if err := cfg.Parse(data); err != nil {
		log.Error("failed to parse configuration file %s: %v", configFilePath, err)
		return err
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	cache := journal.NewSnapshotCache()
	jnl := journal.NewFileJournal(cfg.DeviceID, cache.Produce)
	jnl.SetDeviceType(cfg.DeviceType)
	jnl.SetJournalDir(cfg.JournalDir)
	jnl.SetFileSizeLimit(cfg.FileSizeLimit)
	jnl.SetJournalSizeLimit(cfg.JournalSizeLimit)
	jnl.ConvertLog1Dir()

	hub := stream.NewHub()
	go hub.Run()
	defer hub.Close()

	svc := frontend.NewService(jnl, cache, hub)
	addr := ":" + cfg.ListenPort
	log.Info("shvjournal daemon listening on %s, journal dir %s", addr, jnl.JournalDir())
	return http.ListenAndServe(addr, svc.Handler())
}
