// Package registry is the glue between compiled Go code and the classpath.
//
// Modules compiled into the binary register themselves here: host libraries
// become part of every loader, artifacts become resolvable dependencies and
// controller factories build controllers by type name. The registry is
// validated once at startup so symbol collisions surface before any document
// is loaded.
package registry
