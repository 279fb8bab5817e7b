package planner

import "strings"

// StructureArgs splits each arg key on "." and materializes it into a
// nested object (§4.3 "Arg structuring"). Shared prefixes share
// intermediate nodes; the first write to a given leaf wins, later writes to
// the same leaf are ignored. The result is the handlebars render context.
func StructureArgs(args map[string]string) map[string]interface{} {
	root := map[string]interface{}{}
	for key, value := range args {
		insertArgPath(root, strings.Split(key, "."), value)
	}
	return root
}

func insertArgPath(parent map[string]interface{}, path []string, value string) {
	head := path[0]
	if len(path) == 1 {
		if _, exists := parent[head]; !exists {
			parent[head] = value
		}
		return
	}
	child, ok := parent[head].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		parent[head] = child
	}
	insertArgPath(child, path[1:], value)
}
