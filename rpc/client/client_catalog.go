package client

import (
	"encoding/json"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/lib/record"
	"github.com/ValentinKolb/shelf/rpc/common"
	"github.com/ValentinKolb/shelf/rpc/serializer"
	"github.com/ValentinKolb/shelf/rpc/transport"
)

// NewRPCCatalog creates a new RPC catalog
// The function takes a shard ID, a config, a transport and a serializer as parameters.
// The transport is connected here, closing it is up to the caller.
// It returns a catalog.ICatalog and an error
func NewRPCCatalog(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (catalog.ICatalog, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcCatalog{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcCatalog struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see catalog.ICatalog)
// --------------------------------------------------------------------------

func (c *rpcCatalog) Add(payload catalog.Payload) (record.Record, error) {
	return c.invokeRecord(common.NewAddRequest(payload))
}

func (c *rpcCatalog) Get(id uint64) (record.Record, error) {
	return c.invokeRecord(common.NewGetRequest(id))
}

func (c *rpcCatalog) ListAvailable() ([]record.Record, error) {
	return c.invokeRecords(common.NewListAvailableRequest())
}

func (c *rpcCatalog) ListAll() ([]record.Record, error) {
	return c.invokeRecords(common.NewListAllRequest())
}

func (c *rpcCatalog) SearchByCategory(category record.Category) ([]record.Record, error) {
	return c.invokeRecords(common.NewSearchRequest(category))
}

func (c *rpcCatalog) Borrow(id uint64, caller string) (record.Record, error) {
	return c.invokeRecord(common.NewBorrowRequest(id, caller))
}

func (c *rpcCatalog) Return(id uint64) (record.Record, error) {
	return c.invokeRecord(common.NewReturnRequest(id))
}

func (c *rpcCatalog) Delete(id uint64) error {
	resp, err := invokeRPCRequest(c.shardId, common.NewDeleteRequest(id), c.transport, c.serializer)
	if err != nil {
		return err
	}
	if !resp.Ok {
		return catalog.NewError(catalog.RetCInternalError, "delete was not acknowledged")
	}
	return nil
}

func (c *rpcCatalog) Info() (catalog.Info, error) {
	resp, err := invokeRPCRequest(c.shardId, common.NewInfoRequest(), c.transport, c.serializer)
	if err != nil {
		return catalog.Info{}, err
	}
	var info catalog.Info
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return catalog.Info{}, catalog.Errorf(catalog.RetCInternalError, "failed to decode info: %v", err)
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *rpcCatalog) invokeRecord(req *common.Message) (record.Record, error) {
	resp, err := invokeRPCRequest(c.shardId, req, c.transport, c.serializer)
	if err != nil {
		return record.Record{}, err
	}
	return resp.Record()
}

func (c *rpcCatalog) invokeRecords(req *common.Message) ([]record.Record, error) {
	resp, err := invokeRPCRequest(c.shardId, req, c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	// empty lists may arrive as an absent field
	if resp.Records == nil {
		return []record.Record{}, nil
	}
	return resp.Records, nil
}
