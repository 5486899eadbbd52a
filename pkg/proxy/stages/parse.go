package stages

import (
	"context"
	"fmt"

	"github.com/rpcgate/rpcgate/pkg/jsonrpc"
	"github.com/rpcgate/rpcgate/pkg/proxy"
)

// Parse validates the body as a single JSON-RPC 2.0 request.
type Parse struct {
	proxy.NoDrain
}

// NewParse creates the parse stage.
func NewParse() *Parse {
	return &Parse{}
}

func (*Parse) Name() string { return NameParse }

// Process implements proxy.Stage.
func (*Parse) Process(_ context.Context, rc *proxy.RequestContext) (bool, error) {
	req, err := jsonrpc.ParseRequest(rc.Body)
	if err != nil {
		if pub := proxy.FromParseError(err); pub != nil {
			return false, pub
		}
		return false, fmt.Errorf("parse request: %w", err)
	}
	rc.RPC = req
	return true, nil
}
