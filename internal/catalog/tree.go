package catalog

import (
	"sort"
	"strings"
)

// TreeNode is one directory level of the hierarchical catalog view. Leaves
// live in Files; child directories in Dirs. Both are ordered lexicographically
// (case-insensitive).
type TreeNode struct {
	// Name is the directory name; empty for the root.
	Name string `json:"name,omitempty"`
	// Dirs are the child directories in display order.
	Dirs []*TreeNode `json:"dirs,omitempty"`
	// Files are the documents directly in this directory in display order.
	Files []DocumentEntry `json:"files,omitempty"`
}

// BuildTree groups entries by path segment into a nested tree. basePrefix is
// stripped from every key before grouping so the tree starts at the scanned
// scope. The transform is pure and performs no store calls.
func BuildTree(entries []DocumentEntry, basePrefix string) *TreeNode {
	root := &TreeNode{}
	dirIndex := map[*TreeNode]map[string]*TreeNode{root: {}}

	for _, entry := range entries {
		rel := entry.Key
		if basePrefix != "" {
			rel = strings.TrimPrefix(rel, basePrefix)
		}

		parts := splitPath(rel)
		if len(parts) == 0 {
			continue
		}

		cur := root
		for _, dir := range parts[:len(parts)-1] {
			children := dirIndex[cur]
			child, ok := children[dir]
			if !ok {
				child = &TreeNode{Name: dir}
				children[dir] = child
				cur.Dirs = append(cur.Dirs, child)
				dirIndex[child] = map[string]*TreeNode{}
			}
			cur = child
		}
		cur.Files = append(cur.Files, entry)
	}

	sortTree(root)
	return root
}

func splitPath(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

func sortTree(node *TreeNode) {
	sort.Slice(node.Dirs, func(i, j int) bool {
		return strings.ToLower(node.Dirs[i].Name) < strings.ToLower(node.Dirs[j].Name)
	})
	sort.Slice(node.Files, func(i, j int) bool {
		return strings.ToLower(node.Files[i].Title()) < strings.ToLower(node.Files[j].Title())
	})
	for _, dir := range node.Dirs {
		sortTree(dir)
	}
}
