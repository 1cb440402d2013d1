// Package manager keeps a document's style containers in sync with the set
// of rules currently in use.
//
// Consumers call Insert when they start using a rule and Remove when they
// stop; the manager reference-counts rule ids and only drops a rule's text
// once nobody uses it. Rules are packed, per precedence tier, into
// containers of bounded size. Insert and Remove only touch memory: Flush is
// the single point where the render target is written, once per rendering
// pass, so a mount immediately followed by an unmount never reaches the
// document.
//
// Container placement preserves cascade order. A new container goes right
// after the last container of its tier, or after the last container of any
// tier when its tier has none yet, so tiers appear in the document in the
// order they were first needed and keep their internal insertion order.
package manager
