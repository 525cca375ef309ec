package cmd

import (
	"fmt"
	"github.com/ValentinKolb/shelf/cmd/record"
	"github.com/ValentinKolb/shelf/cmd/serve"
	"github.com/ValentinKolb/shelf/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "shelf",
		Short: "persistent lending catalog",
		Long: fmt.Sprintf(`shelf (v%s)

A persistent lending catalog written in Go. Records (books, tools, media, ...)
are stored in a paged memory file and can be added, searched, borrowed,
returned and deleted over HTTP, TCP or unix sockets.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of shelf",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelf v%s\n", Version)
		},
	}
)

func init() {
	// Load env files and environment variables once for all commands
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(record.RecordCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
