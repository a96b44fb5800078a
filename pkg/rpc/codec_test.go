package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

type echoServer interface {
	Echo(ctx context.Context, in *echoRequest) (*echoResponse, error)
}

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text string `json:"text"`
}

type echo struct{}

func (echo) Echo(_ context.Context, in *echoRequest) (*echoResponse, error) {
	return &echoResponse{Text: in.Text}, nil
}

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	data, err := codec.Marshal(&echoRequest{Text: "apple"})
	require.NoError(t, err)

	var out echoRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, "apple", out.Text)
}

func TestUnaryRunsThroughInterceptor(t *testing.T) {
	desc := Unary(
		"test.Echo", "Echo", echoServer.Echo,
	)
	assert.Equal(t, "Echo", desc.MethodName)

	dec := func(v any) error {
		v.(*echoRequest).Text = "pear"
		return nil
	}

	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}

	resp, err := desc.Handler(echo{}, context.Background(), dec, interceptor)
	require.NoError(t, err)
	assert.Equal(t, "/test.Echo/Echo", seen)
	assert.Equal(t, "pear", resp.(*echoResponse).Text)

	resp, err = desc.Handler(echo{}, context.Background(), dec, nil)
	require.NoError(t, err)
	assert.Equal(t, "pear", resp.(*echoResponse).Text)
}
