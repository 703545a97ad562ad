// Package remote implements the service facades over the backend REST API.
// Inputs are validated locally before any request is sent.
package remote

import (
	"context"
	"fmt"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/client"
	"github.com/wisekey/langcenter/internal/validator"
)

// resource is the generic CRUD half of every facade.
type resource[T, In any] struct {
	c    *client.Client
	path string
}

func (r resource[T, In]) List(ctx context.Context) ([]T, error) {
	return list[T](ctx, r.c, r.path)
}

func (r resource[T, In]) Get(ctx context.Context, id int64) (*T, error) {
	return one[T](ctx, r.c, r.at(id))
}

func (r resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Post(ctx, r.path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T, In]) Update(ctx context.Context, id int64, in In) (*T, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Put(ctx, r.at(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T, In]) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, r.at(id), nil)
}

func (r resource[T, In]) at(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

// list fetches an array; a null body yields an empty slice.
func list[T any](ctx context.Context, c *client.Client, path string, opts ...client.RequestOption) ([]T, error) {
	var out []T
	if err := c.Get(ctx, path, &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func one[T any](ctx context.Context, c *client.Client, path string, opts ...client.RequestOption) (*T, error) {
	var out T
	if err := c.Get(ctx, path, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// check runs the binding rules the server would apply.
func check(v any) error {
	if fields := validator.Struct(v); fields != nil {
		return apierr.Validation(fields)
	}
	return nil
}
