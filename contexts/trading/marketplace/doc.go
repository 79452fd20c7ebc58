// Package marketplace contains the fixed-price asset marketplace ledger.
//
// An owner lists a uniquely-identified asset at a price, a buyer purchases it
// by paying that price, and seller proceeds accumulate until explicitly
// withdrawn (pull-payment). Local state commits before any externally
// controlled settlement call, which is the module's defense against
// reentrancy-style double spends.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package marketplace
