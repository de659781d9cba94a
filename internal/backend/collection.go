package backend

import (
	"context"
	"fmt"
)

// Collection is one REST resource exposed as `<path>` and `<path><id>/`.
type Collection[T any] struct {
	client *Client
	path   string
}

// NewCollection binds path (with trailing slash, e.g. "/users/") to client.
func NewCollection[T any](client *Client, path string) *Collection[T] {
	return &Collection[T]{client: client, path: path}
}

func (c *Collection[T]) Path() string {
	return c.path
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	if err := c.client.Get(ctx, c.path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Collection[T]) Create(ctx context.Context, payload interface{}) (T, error) {
	var created T
	err := c.client.Post(ctx, c.path, payload, &created)
	return created, err
}

func (c *Collection[T]) Update(ctx context.Context, id int64, payload interface{}) (T, error) {
	var updated T
	err := c.client.Put(ctx, c.itemPath(id), payload, &updated)
	return updated, err
}

func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	return c.client.Delete(ctx, c.itemPath(id))
}

func (c *Collection[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", c.path, id)
}
