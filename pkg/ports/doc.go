// Package ports declares the driven-side interfaces the Formwork engine
// consumes: the observable value cell that stores and republishes state,
// the schema validator, and the submit handler. Adapters under
// pkg/adapters provide the default implementations.
package ports
