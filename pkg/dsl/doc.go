/*
Package dsl provides a Go DSL for programmatically constructing circuits.

Components are declared under local names and wired by "name" or "name.slot"
references, so circuits can be written without tracking handles or positional
indices. Build produces a domain.Document in declaration order.

Example usage:

	b := dsl.New()
	b.Input("a")
	b.Input("b")
	b.Add("sum", "xor").From("a", "b")
	b.Add("carry", "and").From("a", "b")
	b.Output("s").From("sum")
	b.Output("c").From("carry")

	circuit, err := b.Circuit()
*/
package dsl
