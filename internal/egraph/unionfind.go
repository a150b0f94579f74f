package egraph

import "strconv"

// Id identifies an equivalence class. Ids are handed out densely by the
// union-find, so a freshly made class always gets the next integer.
type Id uint32

func (id Id) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// unionFind is a disjoint-set forest over class ids with path compression.
type unionFind struct {
	parents []Id
}

func (u *unionFind) makeSet() Id {
	id := Id(len(u.parents))
	u.parents = append(u.parents, id)
	return id
}

func (u *unionFind) find(id Id) Id {
	root := id
	for u.parents[root] != root {
		root = u.parents[root]
	}
	// compress the path walked above
	for u.parents[id] != root {
		next := u.parents[id]
		u.parents[id] = root
		id = next
	}
	return root
}

// union makes root1 the parent of root2. Both must already be roots.
func (u *unionFind) union(root1, root2 Id) Id {
	u.parents[root2] = root1
	return root1
}
