package schema

import "fmt"

type tableNode struct {
	name    string
	edges   []string
	visited bool
	temp    bool
}

// TopologicalSort orders tables so that every table appears after the
// tables its foreign keys reference. Self-references are ignored; a cycle
// among distinct tables is an error.
func TopologicalSort(tables []Table) ([]Table, error) {
	nodes := make(map[string]*tableNode, len(tables))
	for _, t := range tables {
		key := FoldName(t.Name)
		node := &tableNode{name: key}
		for _, fk := range t.ForeignKeys {
			ref := FoldName(fk.RefTable)
			if ref != key {
				node.edges = append(node.edges, ref)
			}
		}
		nodes[key] = node
	}

	var sorted []string
	var visit func(string) error
	visit = func(name string) error {
		node, ok := nodes[name]
		if !ok {
			// Referenced table is not part of this batch; the caller is
			// responsible for it existing already.
			return nil
		}
		if node.temp {
			return fmt.Errorf("cyclic foreign key dependency involving table %s", name)
		}
		if !node.visited {
			node.temp = true
			for _, edge := range node.edges {
				if err := visit(edge); err != nil {
					return err
				}
			}
			node.temp = false
			node.visited = true
			sorted = append(sorted, name)
		}
		return nil
	}

	for _, t := range tables {
		if err := visit(FoldName(t.Name)); err != nil {
			return nil, err
		}
	}

	sortedTables := make([]Table, 0, len(tables))
	for _, name := range sorted {
		for _, t := range tables {
			if FoldName(t.Name) == name {
				sortedTables = append(sortedTables, t)
				break
			}
		}
	}

	return sortedTables, nil
}
