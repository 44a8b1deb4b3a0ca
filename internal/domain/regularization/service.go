package regularization

import "context"

type RegularizationService interface {
	Submit(ctx context.Context, req SubmitRegularizationRequest) (RegularizationResponse, error)
	Review(ctx context.Context, req ReviewRegularizationRequest) (RegularizationResponse, error)
	ListMine(ctx context.Context) ([]RegularizationResponse, error)
	ListPending(ctx context.Context) ([]RegularizationResponse, error)
}
