package server

import (
	"fmt"
	"github.com/ValentinKolb/shelf/lib/catalog"
	"github.com/ValentinKolb/shelf/rpc/common"
)

// NewCatalogServerAdapter creates the adapter that maps messages to catalog.ICatalog calls
func NewCatalogServerAdapter() IRPCServerAdapter {
	return &catalogServerAdapterImpl{}
}

type catalogServerAdapterImpl struct{}

func (adapter *catalogServerAdapterImpl) Handle(req *common.Message, c catalog.ICatalog) *common.Message {
	if c == nil {
		return common.NewErrorResponse("handler: catalog is nil")
	}

	switch req.MsgType {
	case common.MsgTGet:
		r, err := c.Get(req.ID)
		return common.NewRecordResponse(req.MsgType, r, err)
	case common.MsgTListAvailable:
		records, err := c.ListAvailable()
		return common.NewRecordsResponse(req.MsgType, records, err)
	case common.MsgTListAll:
		records, err := c.ListAll()
		return common.NewRecordsResponse(req.MsgType, records, err)
	case common.MsgTSearch:
		records, err := c.SearchByCategory(req.Category)
		return common.NewRecordsResponse(req.MsgType, records, err)
	case common.MsgTInfo:
		info, err := c.Info()
		return common.NewInfoResponse(info, err)
	case common.MsgTAdd:
		r, err := c.Add(req.Payload())
		return common.NewRecordResponse(req.MsgType, r, err)
	case common.MsgTBorrow:
		r, err := c.Borrow(req.ID, req.Caller)
		return common.NewRecordResponse(req.MsgType, r, err)
	case common.MsgTReturn:
		r, err := c.Return(req.ID)
		return common.NewRecordResponse(req.MsgType, r, err)
	case common.MsgTDelete:
		return common.NewDeleteResponse(c.Delete(req.ID))
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC CatalogAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
