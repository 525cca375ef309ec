package record

import (
	"github.com/ValentinKolb/shelf/cmd/util"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/rpc/client"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/ValentinKolb/shelf/rpc/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcCatalog   catalog.ICatalog
	rpcTransport transport.IRPCClientTransport
	clientConfig *common.ClientConfig

	// RecordCommands represents the record command group
	RecordCommands = &cobra.Command{
		Use:                "record",
		Short:              "Work with the records of a catalog",
		PersistentPreRunE:  setupCatalogClient,
		PersistentPostRunE: closeCatalogClient,
	}
)

func init() {
	// Add common RPC flags to the record command
	util.SetupRPCClientFlags(RecordCommands)

	RecordCommands.PersistentFlags().String("log-level", "warn", util.WrapString("LogLevel of the client (debug, info, warn, error)"))

	// Add subcommands
	RecordCommands.AddCommand(addCmd)
	RecordCommands.AddCommand(getCmd)
	RecordCommands.AddCommand(listCmd)
	RecordCommands.AddCommand(availableCmd)
	RecordCommands.AddCommand(searchCmd)
	RecordCommands.AddCommand(borrowCmd)
	RecordCommands.AddCommand(returnCmd)
	RecordCommands.AddCommand(deleteCmd)
	RecordCommands.AddCommand(infoCmd)
	RecordCommands.AddCommand(perfTestCmd)
}

// setupCatalogClient initializes the RPC catalog client
func setupCatalogClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	clientConfig = util.GetClientConfig()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	rpcTransport, err = util.GetClientTransport()
	if err != nil {
		return err
	}

	rpcCatalog, err = client.NewRPCCatalog(
		util.GetShardID(),
		*clientConfig,
		rpcTransport,
		s,
	)
	return err
}

// closeCatalogClient closes the connections of the client
func closeCatalogClient(_ *cobra.Command, _ []string) error {
	if rpcTransport == nil {
		return nil
	}
	return rpcTransport.Close()
}
