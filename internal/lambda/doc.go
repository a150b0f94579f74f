// Package lambda defines a small lambda calculus and simplifies its terms by
// equality saturation.
//
// The language has booleans, 32-bit integers, addition, equality,
// application, abstraction, let, fix and if:
//
//	(let fib (fix fib (lam n (if (= (var n) 0) 0 ...))) (app (var fib) 4))
//
// Binders are symbols; a variable reference is (var x). The Analysis tracks
// the free variables of every class and folds constants, unioning a class
// with its literal as soon as its value is known. Rules encodes the
// equational theory: beta reduction, explicit substitution through let,
// unrolling of fix, constant conditionals and commutativity. Substitution
// under a lambda renames the binder when it would capture (CaptureAvoid).
package lambda
