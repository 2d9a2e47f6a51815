package ir

// Program is the root of a validated QProgram: its declared Variables (in
// declaration order, which doubles as their serialization index) and the
// top-level Block of operations.
type Program struct {
	ID        string
	Variables []*Variable
	Root      *Block
}

// Walk visits every node in the tree in program order, depth-first,
// invoking fn on each. It is the shared traversal used by the scheduler,
// the code generator, and the serializer.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch t := n.(type) {
	case *Block:
		for _, c := range t.Children {
			Walk(c, fn)
		}
	case *InfiniteLoop:
		Walk(t.Body, fn)
	case *ForLoop:
		Walk(t.Body, fn)
	case *Loop:
		Walk(t.Body, fn)
	case *Parallel:
		for _, br := range t.Branches {
			Walk(br.Body, fn)
		}
	case *Average:
		Walk(t.Body, fn)
	}
}
