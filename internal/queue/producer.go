package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hansdj/internal/shared"
)

// Enqueue appends one pending request to the store at path. See [Store.Enqueue].
func Enqueue(ctx context.Context, path, song, bot string) (Record, error) {
	return NewStore(path).Enqueue(ctx, song, bot)
}

// SongQuery joins command-line arguments into a trimmed song query. An empty or blank query
// wraps [shared.ErrMissingArgument].
func SongQuery(args []string) (string, error) {
	song := strings.TrimSpace(strings.Join(args, " "))
	if song == "" {
		return "", fmt.Errorf("%w: song query", shared.ErrMissingArgument)
	}
	return song, nil
}
