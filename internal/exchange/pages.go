package exchange

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"net/url"
)

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type edge[T any] struct {
	Node   T      `json:"node"`
	Cursor string `json:"cursor"`
}

type connection[T any] struct {
	Edges    []edge[T] `json:"edges"`
	PageInfo pageInfo  `json:"pageInfo"`
}

// pages lazily walks a paginated listing, yielding each node in order. The
// next page is only requested once the caller has consumed the current one,
// and every range over the returned sequence starts again from the first page.
// Iteration stops after the first error.
func pages[T any](ctx context.Context, c *Client, path string, params url.Values, key string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		q := url.Values{}
		maps.Copy(q, params)

		for {
			var page connection[T]
			if err := c.getKey(ctx, path, q, key, &page); err != nil {
				yield(zero, err)
				return
			}
			for _, e := range page.Edges {
				if !yield(e.Node, nil) {
					return
				}
			}
			if !page.PageInfo.HasNextPage {
				return
			}
			if page.PageInfo.EndCursor == "" {
				yield(zero, fmt.Errorf("%w: pageInfo.endCursor in %s", ErrMissingField, path))
				return
			}
			q.Set("pagination.after", page.PageInfo.EndCursor)
		}
	}
}

// collect drains seq into a slice.
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
