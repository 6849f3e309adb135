// Package sourcetree inspects and updates the firmware builder checkout.
//
// The GitRepository reads the exact release tag the checkout sits on and can
// move the checkout forward to the latest upstream revision. It exposes a
// Repository interface that the builder service depends on.
package sourcetree
