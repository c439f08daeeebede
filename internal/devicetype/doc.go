// Package devicetype holds the static catalog of DomoCAN device types.
//
// Every node registered on a DomoCAN controller carries a small integer type
// code. The catalog maps the codes this deployment knows about to the labels
// shown to an operator:
//
//	label, ok := devicetype.Label(8) // "Coin Counter", true
//	label, ok = devicetype.Label(99) // "", false
//
// Codes without a label are not an error. Controllers may report nodes whose
// type is newer than this build; those render with a blank label.
//
// The catalog is defined once at package init and never mutated, so it is
// safe for concurrent use.
package devicetype
