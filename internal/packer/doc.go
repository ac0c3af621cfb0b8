// Package packer runs whole batches: every package is optimised
// independently, then the shipment selector decides which ones are sent.
//
// A failing package aborts the batch. Packages already optimised keep their
// results but no shipment decisions are made.
package packer
