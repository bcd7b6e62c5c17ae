package dedupe

import "context"

// Guard claims processing rights for a key. Claim reports false when another
// caller already holds the key and it has not expired.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Stop()
}
