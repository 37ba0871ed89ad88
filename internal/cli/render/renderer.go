package render

import "github.com/trebuchet-org/mangonel/internal/usecase"

type Renderer[T any] interface {
	Render(result T) error
}

var (
	_ Renderer[*usecase.RunResult]           = (*RunRenderer)(nil)
	_ Renderer[*usecase.ListRegistryResult]  = (*RegistryRenderer)(nil)
	_ Renderer[*usecase.GuardedCallResult]   = (*GuardedCallRenderer)(nil)
	_ Renderer[[]usecase.GeneratedABI]       = (*GenerateABIRenderer)(nil)
	_ Renderer[*usecase.ManageDevNodeResult] = (*DevNodeRenderer)(nil)
)
