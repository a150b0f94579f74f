// Package egraph implements an equivalence graph and the machinery for
// equality saturation over it.
//
// An EGraph stores nodes of any Language, hash-consed and grouped into
// equivalence classes kept closed under congruence. An Analysis attaches
// data to every class and is told about every insertion and union.
//
// On top of the graph the package provides:
//   - s-expression terms (Expr) and patterns with '?' variables (Pattern)
//   - e-matching (Pattern.Search) and instantiation (Pattern.Instantiate)
//   - rewrites with conditions and programmatic appliers (Rewrite)
//   - a saturation driver with iteration, node and time limits (Runner)
//   - cost-based extraction of a representative term (Extractor)
//
// Graphs are not safe for concurrent use.
package egraph
