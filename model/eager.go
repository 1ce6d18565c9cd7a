package model

import (
	"context"
	"fmt"
	"strings"
)

// Eager resolves the named relationships of parents and stores the content
// on each parent. A dotted name such as "posts.comments" continues on the
// loaded children. Parents must all belong to r.
func (r *Reflection) Eager(ctx context.Context, parents []*Instance, names ...string) error {
	if len(parents) == 0 {
		return nil
	}

	nested := make(map[string][]string)
	var order []string
	for _, name := range names {
		head, rest, _ := strings.Cut(name, ".")
		if _, seen := nested[head]; !seen {
			order = append(order, head)
			nested[head] = nil
		}
		if rest != "" {
			nested[head] = append(nested[head], rest)
		}
	}

	for _, name := range order {
		rel, ok := r.relations[name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelationship, r.name, name)
		}

		contents, err := rel.ResolveAll(ctx, parents)
		if err != nil {
			return fmt.Errorf("eager %s.%s: %w", r.name, name, err)
		}

		var children []*Instance
		for _, p := range parents {
			c, ok := contents[Key(p.Get(rel.Local().Name()))]
			if !ok {
				c = &Content{Single: rel.Single()}
			}
			p.SetRelated(name, c)
			children = append(children, c.Payload...)
		}

		if len(nested[name]) > 0 {
			target := rel.Referenced().Reflection()
			if err := target.Eager(ctx, children, nested[name]...); err != nil {
				return err
			}
		}
	}
	return nil
}
