// Package framestore persists produced frames under the staging directory
// so later stages (inference pairing, chunk encoding) can address them by
// index without holding pixel data in memory.
package framestore
