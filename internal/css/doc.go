// Package css holds the small, pure helpers the rule compiler is built from:
// content hashing, selector fragment classification, property name
// conversion, unit defaulting and precedence tier classification.
//
// Nothing in this package keeps state. Every function is deterministic for
// identical input, which is what lets compiled rules be content-addressed.
package css
