package serve

import (
	"errors"
	"fmt"
	cmdUtil "github.com/ValentinKolb/shelf/cmd/util"
	"github.com/ValentinKolb/shelf/lib/region"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/ValentinKolb/shelf/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the shelf server",
		Long:    `Start the shelf server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is SHELF_<flag> (e.g. SHELF_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=file", cmdUtil.WrapString("Comma-separated list of catalogs to serve. Format: ID=TYPE where TYPE is one of: file (persisted below data-dir), memory (lost on shutdown)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory of the memory files of file shards (shard-<ID>.mem)"))

	key = "sync-writes"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("fsync the memory file after every write"))

	key = "max-pages"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("Maximum size of a shard in 64 KiB pages (0 = unlimited)"))

	key = "bucket-pages"
	ServeCmd.PersistentFlags().Uint16(key, region.DefaultBucketPages, cmdUtil.WrapString("Growth unit of a region in pages. Only used when a new memory file is created"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Read and write timeout of the transport in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/shelf.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	cmdUtil.SetupServerTransportFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.SyncWrites = viper.GetBool("sync-writes")
	serveCmdConfig.MaxPages = viper.GetUint64("max-pages")
	serveCmdConfig.BucketPages = uint16(viper.GetUint("bucket-pages"))
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = cmdUtil.GetServerTransportConfig()

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// parseShards parses a shard list like "100=file,200=memory"
func parseShards(s string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	seen := make(map[uint64]bool)

	for _, shardConfig := range cmdUtil.SplitList(s) {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("shard ID %d is used twice", shardID)
		}
		seen[shardID] = true

		shardType, err := common.ParseShardType(parts[1])
		if err != nil {
			return nil, err
		}

		shards = append(shards, common.ServerShard{
			ShardID: shardID,
			Type:    shardType,
		})
	}

	if len(shards) == 0 {
		return nil, errors.New("at least one shard is required")
	}
	return shards, nil
}

// run starts the shelf server and closes it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	closed := make(chan error, 1)
	go func() {
		sig := <-sigCh
		server.Logger.Infof("received %s, shutting down", sig)
		closed <- serv.Close()
	}()

	if err := serv.Serve(); err != nil {
		return errors.Join(err, serv.Close())
	}
	return <-closed
}
