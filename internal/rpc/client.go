package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/go-sod/wknn/internal/result/model"
)

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Predict(ctx context.Context, req *PredictRequest, opts ...grpc.CallOption) (*model.Run, error) {
	out := new(model.Run)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, predictMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
