package ast

// Normalize simplifies the tree in place without changing its truth value:
// single-child groups are replaced by their child, non-empty children sharing
// the parent's connective are merged into it, and empty (always true) groups
// are dropped from AND parents.
func (g *RestrictionGroup) Normalize() *RestrictionGroup {
	var children []Condition
	for _, c := range g.Children {
		c = hoist(c)
		sub, ok := c.(*RestrictionGroup)
		if !ok {
			children = append(children, c)
			continue
		}
		switch {
		case sub.IsEmpty() && g.Type == And:
		case !sub.IsEmpty() && sub.Type == g.Type:
			children = append(children, sub.Children...)
		default:
			children = append(children, sub)
		}
	}
	g.Children = children

	for len(g.Children) == 1 {
		sub, ok := g.Children[0].(*RestrictionGroup)
		if !ok {
			break
		}
		g.Type, g.Children = sub.Type, sub.Children
	}
	return g
}

func hoist(c Condition) Condition {
	for {
		sub, ok := c.(*RestrictionGroup)
		if !ok {
			return c
		}
		sub.Normalize()
		if len(sub.Children) != 1 {
			return sub
		}
		c = sub.Children[0]
	}
}
