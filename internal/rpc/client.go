package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/reroll-odds/internal/service"
)

// Client calls the Odds service and decodes replies into service types.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ComputeDistribution(ctx context.Context, req service.Request, opts ...grpc.CallOption) (service.Response, error) {
	var resp service.Response
	err := c.invoke(ctx, computeDistributionMethod, req, &resp, opts...)
	return resp, err
}

func (c *Client) GetTables(ctx context.Context, set string, opts ...grpc.CallOption) (service.TablesView, error) {
	var view service.TablesView
	err := c.invoke(ctx, getTablesMethod, tablesRequest{Set: set}, &view, opts...)
	return view, err
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, reply, opts...); err != nil {
		return err
	}
	return fromStruct(reply, out)
}
