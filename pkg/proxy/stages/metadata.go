package stages

import (
	"context"

	"github.com/rpcgate/rpcgate/pkg/proxy"
)

// Metadata resolves the caller IP.
type Metadata struct {
	proxy.NoDrain
}

// NewMetadata creates the metadata stage.
func NewMetadata() *Metadata {
	return &Metadata{}
}

func (*Metadata) Name() string { return NameMetadata }

// Process implements proxy.Stage.
func (*Metadata) Process(_ context.Context, rc *proxy.RequestContext) (bool, error) {
	rc.CallerIP = proxy.ClientIP(rc.Request)
	return true, nil
}
