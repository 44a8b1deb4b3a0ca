package audit

import "context"

type LogRepository interface {
	Insert(ctx context.Context, l Log) error
}
