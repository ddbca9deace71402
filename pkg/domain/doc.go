// Package domain contains the core data types shared across the Formwork
// engine and its adapters: field metadata, status records, validation
// reports and the sentinel errors of the public API.
//
// Types here are plain data. Behavior lives in the engine and in the
// adapters that consume these types.
package domain
