package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

// Provider renders billing statements for download.
type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
